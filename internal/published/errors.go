package published

import "fmt"

// ContentNotFoundError means the post has no published body.
type ContentNotFoundError struct {
	Slug string
	Key  string
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("published content for %s not found at %s", e.Slug, e.Key)
}

// FetchError wraps any other failure to load a published body.
type FetchError struct {
	Slug string
	Key  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch published content for %s: %v", e.Slug, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
