package resources

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"quill/internal/assets"
	"quill/internal/content/frontmatter"
	"quill/internal/content/imageref"
	"quill/internal/shared/id"
	"quill/internal/shared/logging"
)

const (
	defaultUploadConcurrency = 4
	markdownMimeType         = "text/markdown; charset=utf-8"
)

// Observer receives one record per synchronization run.
type Observer interface {
	RecordSync(ctx context.Context, duration time.Duration, failed []Slot)
}

type nopObserver struct{}

func (nopObserver) RecordSync(context.Context, time.Duration, []Slot) {}

// Config tunes a Synchronizer.
type Config struct {
	// DefaultCoverURL is returned when a post never had a cover.
	DefaultCoverURL string
	// UploadConcurrency caps the remote calls in flight during fan-out.
	UploadConcurrency int
	Logger            logging.Logger
	Observer          Observer
}

// Synchronizer brings a post's remote resources to the state a Request
// describes.
type Synchronizer struct {
	store        assets.Store
	defaultCover string
	concurrency  int
	logger       logging.Logger
	observer     Observer
	now          func() time.Time
}

// NewSynchronizer builds a synchronizer over store. Per-call deadlines and
// retries belong to the store decorators, not to the synchronizer.
func NewSynchronizer(store assets.Store, cfg Config) *Synchronizer {
	concurrency := cfg.UploadConcurrency
	if concurrency <= 0 {
		concurrency = defaultUploadConcurrency
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Synchronizer{
		store:        store,
		defaultCover: cfg.DefaultCoverURL,
		concurrency:  concurrency,
		logger:       logging.OrNop(cfg.Logger),
		observer:     observer,
		now:          time.Now,
	}
}

// Synchronize applies req. The returned error is non-nil only for an
// unusable request; remote failures are reported per slot in Result.Errors.
func (s *Synchronizer) Synchronize(ctx context.Context, req Request) (Result, error) {
	if err := ValidateSlug(req.Slug); err != nil {
		return Result{}, err
	}
	ctx, _ = id.EnsureLogID(ctx)
	ctx = id.WithSyncID(ctx, id.NewSyncID())
	ctx, span := startSpan(ctx, spanSynchronize, req.Slug)
	defer span.End()

	started := s.now()
	run := &syncRun{
		Synchronizer: s,
		slug:         req.Slug,
		req:          req,
		logger:       logging.FromContext(ctx, s.logger),
	}
	result := run.execute(ctx)

	markSpanResult(span, result.Err())
	s.observer.RecordSync(ctx, s.now().Sub(started), failedSlots(result.Errors))
	return result, nil
}

// Purge deletes every resource in the post's namespace and returns how many
// deletions succeeded.
func (s *Synchronizer) Purge(ctx context.Context, slug string) (int, error) {
	if err := ValidateSlug(slug); err != nil {
		return 0, err
	}
	ctx, _ = id.EnsureLogID(ctx)
	ctx, span := startSpan(ctx, spanPurge, slug)
	defer span.End()
	logger := logging.FromContext(ctx, s.logger)

	listed, err := s.store.ListByPrefix(ctx, Namespace(slug))
	if err != nil {
		markSpanResult(span, err)
		return 0, err
	}

	errs := make([]error, len(listed))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, desc := range listed {
		g.Go(func() error {
			errs[i] = s.store.Delete(ctx, desc.Key)
			return nil
		})
	}
	_ = g.Wait()

	deleted := 0
	var failed []error
	for i, err := range errs {
		if err != nil {
			logger.Error("purge %s: delete %s failed: %v", slug, listed[i].Key, err)
			failed = append(failed, err)
			continue
		}
		deleted++
	}
	logger.Info("purged %d/%d resources of %s", deleted, len(listed), slug)
	err = errors.Join(failed...)
	markSpanResult(span, err)
	return deleted, err
}

// galleryAsset is a gallery image known to exist, observed or just uploaded.
type galleryAsset struct {
	key     string
	url     string
	index   int
	indexed bool
}

type snapshot struct {
	content  *assets.Descriptor
	cover    *assets.Descriptor
	gallery  []assets.Descriptor
	maxIndex int
}

func observe(slug string, listed []assets.Descriptor) snapshot {
	var snap snapshot
	contentKey, coverKey, galleryPrefix := ContentKey(slug), CoverKey(slug), GalleryPrefix(slug)
	for i := range listed {
		desc := listed[i]
		switch {
		case desc.Key == contentKey:
			snap.content = &desc
		case desc.Key == coverKey:
			snap.cover = &desc
		case strings.HasPrefix(desc.Key, galleryPrefix):
			snap.gallery = append(snap.gallery, desc)
			if n, ok := GalleryIndex(slug, desc.Key); ok && n > snap.maxIndex {
				snap.maxIndex = n
			}
		}
	}
	return snap
}

// galleryUpload is one planned gallery write. Inputs with identical payloads
// share a single upload, and a payload already stored in the gallery is not
// uploaded again.
type galleryUpload struct {
	input  Input
	key    string
	index  int
	url    string
	err    error
	stored bool
}

type galleryDelete struct {
	key string
	err error
}

type syncRun struct {
	*Synchronizer
	slug   string
	req    Request
	logger logging.Logger

	snap     snapshot
	uploads  []*galleryUpload
	// perInput maps every gallery input to the write that carries it.
	perInput []*galleryUpload
	deletes  []*galleryDelete
	errs     []SlotError
}

func (r *syncRun) execute(ctx context.Context) Result {
	r.logger.Info("sync %s: markdown=%t cover=%t gallery=%d delete=%d",
		r.slug, r.req.Markdown != nil, r.req.Cover != nil, len(r.req.Gallery), len(r.req.DeleteGalleryKeys))

	listed, err := r.store.ListByPrefix(ctx, Namespace(r.slug))
	if err != nil {
		r.logger.Error("sync %s: list namespace failed, gallery left unchanged: %v", r.slug, err)
		r.fail(SlotGallery, "", err)
	} else {
		r.snap = observe(r.slug, listed)
		r.planGallery()
	}

	var (
		coverDesc assets.Descriptor
		coverErr  error
	)
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	if r.req.Cover != nil {
		g.Go(func() error {
			coverDesc, coverErr = r.upload(ctx, SlotCover, CoverKey(r.slug), assets.KindImage, *r.req.Cover)
			return nil
		})
	}
	for _, up := range r.uploads {
		g.Go(func() error {
			desc, err := r.upload(ctx, SlotGallery, up.key, assets.KindImage, up.input)
			up.url, up.err = desc.SecureURL, err
			return nil
		})
	}
	for _, del := range r.deletes {
		g.Go(func() error {
			del.err = r.delete(ctx, del.key)
			return nil
		})
	}
	_ = g.Wait()

	result := Result{}
	result.Bundle.CoverImageURL = r.coverURL(coverDesc, coverErr)
	result.Bundle.GalleryURLs = r.galleryURLs()
	r.syncContent(ctx, &result)
	result.Errors = r.errs
	if len(result.Errors) > 0 {
		r.logger.Warn("sync %s finished with %d slot error(s)", r.slug, len(result.Errors))
	} else {
		r.logger.Info("sync %s finished: gallery=%d", r.slug, len(result.Bundle.GalleryURLs))
	}
	return result
}

func (r *syncRun) planGallery() {
	observed := make(map[string]bool, len(r.snap.gallery))
	for _, desc := range r.snap.gallery {
		observed[desc.Key] = true
	}
	seen := make(map[string]bool, len(r.req.DeleteGalleryKeys))
	for _, raw := range r.req.DeleteGalleryKeys {
		key, err := NormalizeDeleteKey(r.slug, raw)
		if err != nil {
			r.logger.Warn("sync %s: ignoring deletion of %q: %v", r.slug, raw, err)
			r.fail(SlotGallery, raw, err)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		// An unobserved key is already gone, and it may be the key a new
		// upload in this run is about to take.
		if !observed[key] {
			r.logger.Debug("sync %s: %s not in gallery, nothing to delete", r.slug, key)
			continue
		}
		r.deletes = append(r.deletes, &galleryDelete{key: key})
	}

	byChecksum := make(map[string]*galleryUpload)
	for _, desc := range r.snap.gallery {
		if desc.Checksum == "" || seen[desc.Key] {
			continue
		}
		if _, ok := byChecksum[desc.Checksum]; !ok {
			byChecksum[desc.Checksum] = &galleryUpload{key: desc.Key, url: desc.SecureURL, stored: true}
		}
	}

	next := r.snap.maxIndex
	r.perInput = make([]*galleryUpload, len(r.req.Gallery))
	for i, input := range r.req.Gallery {
		sum := assets.Checksum(input.Data)
		if existing, ok := byChecksum[sum]; ok && len(input.Data) > 0 {
			r.perInput[i] = existing
			if existing.stored {
				r.logger.Debug("sync %s: %s already stored as %s", r.slug, input.Filename, existing.key)
			}
			continue
		}
		next++
		up := &galleryUpload{input: input, key: GalleryKey(r.slug, next), index: next}
		byChecksum[sum] = up
		r.uploads = append(r.uploads, up)
		r.perInput[i] = up
	}
}

func (r *syncRun) upload(ctx context.Context, slot Slot, key string, kind assets.Kind, in Input) (assets.Descriptor, error) {
	ctx, span := startSpan(ctx, spanUpload, r.slug,
		attribute.String(attrSlot, string(slot)), attribute.String(attrKey, key))
	defer span.End()
	desc, err := r.store.Upload(ctx, assets.UploadRequest{
		Key:      key,
		Kind:     kind,
		MimeType: in.MimeType,
		Filename: in.Filename,
		Data:     in.Data,
	})
	markSpanResult(span, err)
	return desc, err
}

func (r *syncRun) delete(ctx context.Context, key string) error {
	ctx, span := startSpan(ctx, spanDelete, r.slug,
		attribute.String(attrSlot, string(SlotGallery)), attribute.String(attrKey, key))
	defer span.End()
	err := r.store.Delete(ctx, key)
	markSpanResult(span, err)
	return err
}

func (r *syncRun) fail(slot Slot, key string, err error) {
	r.errs = append(r.errs, SlotError{Slot: slot, Key: key, Err: err})
}

func (r *syncRun) coverURL(desc assets.Descriptor, err error) string {
	if r.req.Cover != nil {
		if err == nil {
			return desc.SecureURL
		}
		r.logger.Error("sync %s: cover upload failed: %v", r.slug, err)
		r.fail(SlotCover, CoverKey(r.slug), err)
	}
	if r.snap.cover != nil {
		return r.snap.cover.SecureURL
	}
	return r.defaultCover
}

// galleryURLs lists the observed gallery minus successful deletions plus
// successful uploads, by ascending index. Keys without a parsable index go
// last. An image whose deletion failed still exists and stays listed.
func (r *syncRun) galleryURLs() []string {
	deleted := make(map[string]bool, len(r.deletes))
	for _, del := range r.deletes {
		if del.err != nil {
			r.logger.Error("sync %s: delete %s failed: %v", r.slug, del.key, del.err)
			r.fail(SlotGallery, del.key, del.err)
			continue
		}
		deleted[del.key] = true
	}

	items := make([]galleryAsset, 0, len(r.snap.gallery)+len(r.uploads))
	for _, desc := range r.snap.gallery {
		if deleted[desc.Key] {
			continue
		}
		n, ok := GalleryIndex(r.slug, desc.Key)
		items = append(items, galleryAsset{key: desc.Key, url: desc.SecureURL, index: n, indexed: ok})
	}
	for _, up := range r.uploads {
		if up.err != nil {
			r.logger.Error("sync %s: gallery upload %s (%s) failed: %v", r.slug, up.key, up.input.Filename, up.err)
			r.fail(SlotGallery, up.key, up.err)
			continue
		}
		items = append(items, galleryAsset{key: up.key, url: up.url, index: up.index, indexed: true})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.indexed != b.indexed {
			return a.indexed
		}
		if !a.indexed {
			return a.key < b.key
		}
		return a.index < b.index
	})
	urls := make([]string, 0, len(items))
	for _, item := range items {
		urls = append(urls, item.url)
	}
	return urls
}

// syncContent runs after the gallery join so references resolve to the URLs
// assigned in this call.
func (r *syncRun) syncContent(ctx context.Context, result *Result) {
	if r.snap.content != nil {
		result.Bundle.ContentURL = r.snap.content.SecureURL
	}
	if r.req.Markdown == nil {
		return
	}

	parsed, warning := frontmatter.SplitWithWarning(string(r.req.Markdown.Data))
	if warning != nil {
		r.logger.Warn("sync %s: %v", r.slug, warning)
		result.Warning = warning
	}

	mapping := imageref.NewMapping()
	for i, input := range r.req.Gallery {
		if i >= len(r.perInput) {
			break
		}
		if up := r.perInput[i]; up != nil && up.err == nil && up.url != "" {
			mapping.Add(input.Filename, up.url)
		}
	}
	for _, collision := range mapping.Collisions() {
		r.logger.Warn("sync %s: %v", r.slug, collision)
	}
	result.Collisions = mapping.Collisions()

	body, unmatched := imageref.New(r.logger).Rewrite(parsed.Body, mapping.URLs())
	parsed.Body = body
	result.Content = &parsed
	result.Unmatched = unmatched

	filename := r.req.Markdown.Filename
	if filename == "" {
		filename = r.slug + ".md"
	}
	desc, err := r.upload(ctx, SlotContent, ContentKey(r.slug), assets.KindRaw, Input{
		Filename: filename,
		MimeType: markdownMimeType,
		Data:     []byte(body),
	})
	if err != nil {
		r.logger.Error("sync %s: content upload failed: %v", r.slug, err)
		r.fail(SlotContent, ContentKey(r.slug), err)
		return
	}
	result.Bundle.ContentURL = desc.SecureURL
}

func failedSlots(errs []SlotError) []Slot {
	if len(errs) == 0 {
		return nil
	}
	seen := make(map[Slot]bool, 3)
	var out []Slot
	for _, err := range errs {
		if !seen[err.Slot] {
			seen[err.Slot] = true
			out = append(out, err.Slot)
		}
	}
	return out
}
