package resources

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quill/internal/assets"
)

const (
	testCDN      = "https://cdn.test"
	defaultCover = "https://cdn.test/static/default-cover.png"
)

// faultyStore fails uploads and deletes whose key matches a predicate.
type faultyStore struct {
	*assets.InMemoryStore
	mu         sync.Mutex
	failUpload func(key string) bool
	failDelete func(key string) bool
	failList   bool
	uploads    []string
	deletes    []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{InMemoryStore: assets.NewInMemoryStore(testCDN)}
}

func (f *faultyStore) Upload(ctx context.Context, req assets.UploadRequest) (assets.Descriptor, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, req.Key)
	f.mu.Unlock()
	if f.failUpload != nil && f.failUpload(req.Key) {
		return assets.Descriptor{}, &assets.UploadError{Key: req.Key, Err: errors.New("remote rejected upload")}
	}
	return f.InMemoryStore.Upload(ctx, req)
}

func (f *faultyStore) ListByPrefix(ctx context.Context, prefix string) ([]assets.Descriptor, error) {
	if f.failList {
		return nil, &assets.ListError{Prefix: prefix, Err: errors.New("listing unavailable")}
	}
	return f.InMemoryStore.ListByPrefix(ctx, prefix)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, key)
	f.mu.Unlock()
	if f.failDelete != nil && f.failDelete(key) {
		return &assets.DeleteError{Key: key, Err: errors.New("remote rejected delete")}
	}
	return f.InMemoryStore.Delete(ctx, key)
}

func (f *faultyStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func newTestSynchronizer(store assets.Store) *Synchronizer {
	return NewSynchronizer(store, Config{DefaultCoverURL: defaultCover, UploadConcurrency: 3})
}

func imageURL(key string) string {
	return assets.DeliveryURL(testCDN, assets.KindImage, key)
}

func TestSynchronizeRewritesReferencesToFreshGallery(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	syncer := newTestSynchronizer(store)

	result, err := syncer.Synchronize(context.Background(), Request{
		Slug:     "hello-world",
		Markdown: &Input{Filename: "post.md", Data: []byte("# Hi\n![cat](cat.png)")},
		Gallery:  []Input{{Filename: "cat.png", MimeType: "image/png", Data: []byte("cat-bytes")}},
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	galleryURL := imageURL("posts/hello-world/gallery/hello-world-gallery-1")
	require.Equal(t, []string{galleryURL}, result.Bundle.GalleryURLs)
	require.Equal(t, "# Hi\n![cat]("+galleryURL+")", result.Content.Body)
	require.Equal(t, 0, result.Unmatched)
	require.Equal(t, defaultCover, result.Bundle.CoverImageURL)
	require.Equal(t, assets.DeliveryURL(testCDN, assets.KindRaw, "posts/hello-world/hello-world-index"), result.Bundle.ContentURL)

	stored, err := store.Fetch(context.Background(), ContentKey("hello-world"))
	require.NoError(t, err)
	require.Equal(t, result.Content.Body, string(stored))
}

func TestSynchronizeDeletesGalleryByRoleName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	syncer := newTestSynchronizer(store)

	first, err := syncer.Synchronize(ctx, Request{
		Slug:     "hello-world",
		Markdown: &Input{Data: []byte("# Hi\n![cat](cat.png)")},
		Gallery:  []Input{{Filename: "cat.png", Data: []byte("cat-bytes")}},
	})
	require.NoError(t, err)
	require.Len(t, first.Bundle.GalleryURLs, 1)

	second, err := syncer.Synchronize(ctx, Request{
		Slug:              "hello-world",
		DeleteGalleryKeys: []string{"hello-world-gallery-1"},
	})
	require.NoError(t, err)
	require.Empty(t, second.Errors)
	require.NotNil(t, second.Bundle.GalleryURLs)
	require.Empty(t, second.Bundle.GalleryURLs)
	require.Equal(t, first.Bundle.ContentURL, second.Bundle.ContentURL, "content untouched without new markdown")

	listed, err := store.ListByPrefix(ctx, GalleryPrefix("hello-world"))
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestSynchronizeCoverFailureKeepsPreviousOrDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	store.failUpload = func(string) bool { return true }
	syncer := newTestSynchronizer(store)

	result, err := syncer.Synchronize(ctx, Request{
		Slug:  "no-cover-yet",
		Cover: &Input{Filename: "cover.jpg", Data: []byte("jpeg")},
	})
	require.NoError(t, err)
	require.Equal(t, defaultCover, result.Bundle.CoverImageURL)
	require.Len(t, result.Errors, 1)
	require.Equal(t, SlotCover, result.Errors[0].Slot)
	var uploadErr *assets.UploadError
	require.ErrorAs(t, result.Errors[0], &uploadErr)
	require.Equal(t, "cover image failed to upload, previous cover retained", result.Errors[0].Message())

	previous, err := store.InMemoryStore.Upload(ctx, assets.UploadRequest{Key: CoverKey("has-cover"), Data: []byte("old")})
	require.NoError(t, err)
	result, err = syncer.Synchronize(ctx, Request{
		Slug:  "has-cover",
		Cover: &Input{Filename: "cover.jpg", Data: []byte("new")},
	})
	require.NoError(t, err)
	require.Equal(t, previous.SecureURL, result.Bundle.CoverImageURL)
	require.Len(t, result.Errors, 1)
}

func TestSynchronizeIsolatesCoverFailure(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	store.failUpload = func(key string) bool { return strings.HasSuffix(key, "-cover-image") }
	syncer := newTestSynchronizer(store)

	result, err := syncer.Synchronize(context.Background(), Request{
		Slug:     "isolated",
		Markdown: &Input{Data: []byte("![a](a.png) ![b](img/b.png)")},
		Cover:    &Input{Filename: "cover.png", Data: []byte("cover")},
		Gallery: []Input{
			{Filename: "a.png", Data: []byte("a")},
			{Filename: "b.png", Data: []byte("b")},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	require.Equal(t, SlotCover, result.Errors[0].Slot)
	require.Equal(t, "upload", assets.Operation(result.Errors[0]))
	require.Equal(t, defaultCover, result.Bundle.CoverImageURL)
	require.NotEmpty(t, result.Bundle.ContentURL)
	require.Equal(t, []string{
		imageURL("posts/isolated/gallery/isolated-gallery-1"),
		imageURL("posts/isolated/gallery/isolated-gallery-2"),
	}, result.Bundle.GalleryURLs)
	require.NotContains(t, result.Content.Body, "a.png")
	require.NotContains(t, result.Content.Body, "img/b.png")
	require.True(t, result.Partial())
	require.Error(t, result.Err())
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	syncer := newTestSynchronizer(store)
	req := Request{
		Slug:     "repeat",
		Markdown: &Input{Data: []byte("---\ntitle: Repeat\n---\n![x](x.png)\n![y](y.png)\n")},
		Cover:    &Input{Filename: "c.png", Data: []byte("cover")},
		Gallery: []Input{
			{Filename: "x.png", Data: []byte("x")},
			{Filename: "y.png", Data: []byte("y")},
		},
	}

	first, err := syncer.Synchronize(ctx, req)
	require.NoError(t, err)
	second, err := syncer.Synchronize(ctx, req)
	require.NoError(t, err)

	require.Equal(t, first.Bundle, second.Bundle)
	require.Equal(t, first.Content.Body, second.Content.Body)
	require.Equal(t, "Repeat", second.Content.Title())

	listed, err := store.ListByPrefix(ctx, GalleryPrefix("repeat"))
	require.NoError(t, err)
	require.Len(t, listed, 2, "identical gallery payloads are not uploaded twice")
}

func TestSynchronizeGalleryOrderingAcrossDeletions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	syncer := newTestSynchronizer(store)
	slug := "ordering"

	gallery := func(names ...string) []Input {
		inputs := make([]Input, 0, len(names))
		for _, name := range names {
			inputs = append(inputs, Input{Filename: name + ".png", Data: []byte(name)})
		}
		return inputs
	}

	_, err := syncer.Synchronize(ctx, Request{Slug: slug, Gallery: gallery("a", "b", "c")})
	require.NoError(t, err)

	result, err := syncer.Synchronize(ctx, Request{
		Slug:              slug,
		Gallery:           gallery("d", "e"),
		DeleteGalleryKeys: []string{"ordering-gallery-2", GalleryKey(slug, 1)},
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Equal(t, []string{
		imageURL(GalleryKey(slug, 3)),
		imageURL(GalleryKey(slug, 4)),
		imageURL(GalleryKey(slug, 5)),
	}, result.Bundle.GalleryURLs)

	// An entry with an unparsable suffix sorts after every indexed one.
	_, err = store.InMemoryStore.Upload(ctx, assets.UploadRequest{Key: GalleryPrefix(slug) + "ordering-gallery-legacy", Kind: assets.KindImage, Data: []byte("l")})
	require.NoError(t, err)
	result, err = syncer.Synchronize(ctx, Request{Slug: slug, DeleteGalleryKeys: []string{"ordering-gallery-4"}})
	require.NoError(t, err)
	require.Equal(t, []string{
		imageURL(GalleryKey(slug, 3)),
		imageURL(GalleryKey(slug, 5)),
		imageURL(GalleryPrefix(slug) + "ordering-gallery-legacy"),
	}, result.Bundle.GalleryURLs)
}

func TestSynchronizeKeepsImagesWhoseDeletionFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	syncer := newTestSynchronizer(store)
	_, err := syncer.Synchronize(ctx, Request{Slug: "keep", Gallery: []Input{{Filename: "a.png", Data: []byte("a")}}})
	require.NoError(t, err)

	store.failDelete = func(string) bool { return true }
	result, err := syncer.Synchronize(ctx, Request{Slug: "keep", DeleteGalleryKeys: []string{"keep-gallery-1", "posts/other/x"}})
	require.NoError(t, err)

	require.Equal(t, []string{imageURL(GalleryKey("keep", 1))}, result.Bundle.GalleryURLs)
	require.Len(t, result.Errors, 2)
	require.ErrorIs(t, result.Errors[0], ErrForeignKey)
	require.Equal(t, "delete", assets.Operation(result.Errors[1]))
	require.Contains(t, result.Errors[1].Message(), "could not be deleted")
}

func TestSynchronizeIgnoresDeletionOfKeyTakenByNewUpload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	syncer := newTestSynchronizer(store)
	slug := "hello-world"
	_, err := syncer.Synchronize(ctx, Request{Slug: slug, Gallery: []Input{{Filename: "a.png", Data: []byte("a")}}})
	require.NoError(t, err)

	// gallery-2 does not exist yet; the new upload is assigned exactly that key.
	result, err := syncer.Synchronize(ctx, Request{
		Slug:              slug,
		Gallery:           []Input{{Filename: "b.png", Data: []byte("b")}},
		DeleteGalleryKeys: []string{"hello-world-gallery-2"},
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Equal(t, []string{
		imageURL(GalleryKey(slug, 1)),
		imageURL(GalleryKey(slug, 2)),
	}, result.Bundle.GalleryURLs)
	require.Empty(t, store.deletes)

	for _, url := range result.Bundle.GalleryURLs {
		key := strings.TrimPrefix(url, testCDN+"/image/upload/")
		_, ok := store.Bytes(key)
		require.True(t, ok, "returned url %s must exist in the store", url)
	}
}

func TestSynchronizeListFailureLeavesGalleryAlone(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	store.failList = true
	syncer := newTestSynchronizer(store)

	result, err := syncer.Synchronize(context.Background(), Request{
		Slug:              "blind",
		Markdown:          &Input{Data: []byte("![a](a.png)")},
		Gallery:           []Input{{Filename: "a.png", Data: []byte("a")}},
		DeleteGalleryKeys: []string{"blind-gallery-1"},
	})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	require.Equal(t, SlotGallery, result.Errors[0].Slot)
	require.Equal(t, "existing gallery could not be listed, gallery left unchanged", result.Errors[0].Message())
	require.NotEmpty(t, result.Bundle.ContentURL)
	require.Equal(t, 1, result.Unmatched)
	require.Equal(t, []string{ContentKey("blind")}, store.uploads)
}

func TestSynchronizeReportsCollisionsAndUnmatched(t *testing.T) {
	t.Parallel()

	syncer := newTestSynchronizer(newFaultyStore())
	result, err := syncer.Synchronize(context.Background(), Request{
		Slug:     "collide",
		Markdown: &Input{Data: []byte("![one](cat.png) ![two](dog.png) ![remote](https://x.test/y.png)")},
		Gallery: []Input{
			{Filename: "a/cat.png", Data: []byte("first")},
			{Filename: "b/cat.png", Data: []byte("second")},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Collisions, 1)
	require.Equal(t, imageURL(GalleryKey("collide", 1)), result.Collisions[0].Kept)
	require.Equal(t, 1, result.Unmatched)
	require.Contains(t, result.Content.Body, "![one]("+imageURL(GalleryKey("collide", 1))+")")
	require.Contains(t, result.Content.Body, "![remote](https://x.test/y.png)")
}

func TestSynchronizeRejectsInvalidSlug(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	_, err := newTestSynchronizer(store).Synchronize(context.Background(), Request{Slug: "../etc"})
	require.ErrorIs(t, err, ErrInvalidSlug)
	require.Zero(t, store.uploadCount())
}

type recordingObserver struct {
	failed [][]Slot
}

func (r *recordingObserver) RecordSync(_ context.Context, _ time.Duration, failed []Slot) {
	r.failed = append(r.failed, failed)
}

func TestSynchronizeReportsToObserver(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	store.failUpload = func(key string) bool { return strings.HasSuffix(key, "-index") }
	observer := &recordingObserver{}
	syncer := NewSynchronizer(store, Config{Observer: observer})

	result, err := syncer.Synchronize(context.Background(), Request{Slug: "obs", Markdown: &Input{Data: []byte("body")}})
	require.NoError(t, err)
	require.Empty(t, result.Bundle.ContentURL)
	require.Equal(t, "content failed to upload, previous content retained", result.Errors[0].Message())
	require.Equal(t, [][]Slot{{SlotContent}}, observer.failed)
}

func TestPurgeRemovesNamespace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFaultyStore()
	syncer := newTestSynchronizer(store)
	_, err := syncer.Synchronize(ctx, Request{
		Slug:     "gone",
		Markdown: &Input{Data: []byte("body")},
		Cover:    &Input{Data: []byte("cover")},
		Gallery:  []Input{{Filename: "a.png", Data: []byte("a")}},
	})
	require.NoError(t, err)
	_, err = syncer.Synchronize(ctx, Request{Slug: "kept", Markdown: &Input{Data: []byte("body")}})
	require.NoError(t, err)

	deleted, err := syncer.Purge(ctx, "gone")
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	listed, err := store.ListByPrefix(ctx, Namespace("gone"))
	require.NoError(t, err)
	require.Empty(t, listed)
	require.Equal(t, 1, store.Len())
}
