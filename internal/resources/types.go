package resources

import (
	"errors"
	"fmt"

	"quill/internal/assets"
	"quill/internal/content/frontmatter"
	"quill/internal/content/imageref"
)

// Input is one file handed over by the caller. It lives only for the
// duration of a call.
type Input struct {
	Filename string
	MimeType string
	Data     []byte
}

// Request describes the desired state of a post's resources. Nil or empty
// fields leave the matching slot untouched.
type Request struct {
	Slug     string
	Markdown *Input
	Cover    *Input
	Gallery  []Input
	// DeleteGalleryKeys holds full gallery keys or role names such as
	// "hello-world-gallery-1".
	DeleteGalleryKeys []string
}

// Bundle is the set of URLs the caller persists into post metadata.
type Bundle struct {
	ContentURL    string   `json:"content_url"`
	CoverImageURL string   `json:"cover_image_url"`
	GalleryURLs   []string `json:"gallery_urls"`
}

// Slot names an independently synchronized part of a post.
type Slot string

const (
	SlotContent Slot = "content"
	SlotCover   Slot = "cover"
	SlotGallery Slot = "gallery"
)

// SlotError records one failed operation inside a slot. Other slots still
// complete when one fails.
type SlotError struct {
	Slot Slot
	// Key is the store key the operation targeted, when there is one.
	Key string
	Err error
}

func (e SlotError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Slot, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Slot, e.Key, e.Err)
}

func (e SlotError) Unwrap() error { return e.Err }

// Message is the editor-facing description of the failure.
func (e SlotError) Message() string {
	switch e.Slot {
	case SlotContent:
		return "content failed to upload, previous content retained"
	case SlotCover:
		return "cover image failed to upload, previous cover retained"
	}
	switch {
	case errors.Is(e.Err, ErrForeignKey):
		return fmt.Sprintf("gallery key %s is not part of this post and was ignored", e.Key)
	case assets.Operation(e.Err) == "list":
		return "existing gallery could not be listed, gallery left unchanged"
	case assets.Operation(e.Err) == "delete":
		return fmt.Sprintf("gallery image %s could not be deleted and was kept", e.Key)
	default:
		return fmt.Sprintf("gallery image %s failed to upload", e.Key)
	}
}

// Result is the outcome of one synchronization.
type Result struct {
	Bundle Bundle
	Errors []SlotError

	// Content is set when a markdown file was supplied; its Body holds the
	// rewritten text that was uploaded.
	Content *frontmatter.Parsed
	// Unmatched counts local image references left unresolved.
	Unmatched  int
	Collisions []imageref.CollisionWarning
	Warning    *frontmatter.ParseWarning
}

// Partial reports whether any slot failed.
func (r Result) Partial() bool {
	return len(r.Errors) > 0
}

// Err joins every slot error, or returns nil.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, slotErr := range r.Errors {
		errs[i] = slotErr
	}
	return errors.Join(errs...)
}
