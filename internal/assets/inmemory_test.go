package assets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreUploadOverwritesAndLists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore("https://cdn.test")

	first, err := store.Upload(ctx, UploadRequest{Key: "posts/a/a-cover-image", Kind: KindImage, Data: []byte("one")})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/image/upload/posts/a/a-cover-image", first.SecureURL)

	second, err := store.Upload(ctx, UploadRequest{Key: "posts/a/a-cover-image", Kind: KindImage, Data: []byte("two")})
	require.NoError(t, err)
	require.Equal(t, first.SecureURL, second.SecureURL)
	require.NotEqual(t, first.Checksum, second.Checksum)

	_, err = store.Upload(ctx, UploadRequest{Key: "posts/b/b-index", Kind: KindRaw, Data: []byte("body")})
	require.NoError(t, err)

	listed, err := store.ListByPrefix(ctx, "posts/a/")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, second, listed[0])

	empty, err := store.ListByPrefix(ctx, "posts/none/")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestInMemoryStoreRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	_, err := NewInMemoryStore("").Upload(context.Background(), UploadRequest{Key: "k"})
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	require.Equal(t, "k", uploadErr.Key)
}

func TestInMemoryStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore("https://cdn.test")
	_, err := store.Upload(ctx, UploadRequest{Key: "k", Data: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))
	require.Zero(t, store.Len())
}

func TestInMemoryStoreRename(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore("https://cdn.test")
	_, err := store.Upload(ctx, UploadRequest{Key: "old", Kind: KindRaw, Data: []byte("x")})
	require.NoError(t, err)

	renamed, err := store.Rename(ctx, "old", "new")
	require.NoError(t, err)
	require.Equal(t, "new", renamed.Key)
	require.Equal(t, "https://cdn.test/raw/upload/new", renamed.SecureURL)

	_, err = store.Rename(ctx, "old", "other")
	var renameErr *RenameError
	require.ErrorAs(t, err, &renameErr)
	require.True(t, IsNotFound(err))
}

func TestInMemoryStoreHonoursCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewInMemoryStore("")

	_, err := store.ListByPrefix(ctx, "p")
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, "list", Operation(err))

	_, err = store.Fetch(context.Background(), "missing")
	require.True(t, IsNotFound(err))
}

func TestInMemoryStoreInfersKindWhenUnset(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore("https://cdn.test")
	ctx := context.Background()

	body, err := store.Upload(ctx, UploadRequest{Key: "posts/a/a-index", MimeType: "text/markdown", Data: []byte("# A")})
	require.NoError(t, err)
	require.Equal(t, KindRaw, body.Kind)
	require.Equal(t, "https://cdn.test/raw/upload/posts/a/a-index", body.SecureURL)

	explicit, err := store.Upload(ctx, UploadRequest{Key: "posts/a/a-cover-image", Kind: KindImage, MimeType: "text/plain", Data: []byte("not really an image")})
	require.NoError(t, err)
	require.Equal(t, KindImage, explicit.Kind)
}
