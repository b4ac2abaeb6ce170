package assets

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a key the store does not hold.
var ErrNotFound = errors.New("asset not found")

// UploadError reports a failed upload.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload %s: %v", e.Key, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// ListError reports a failed prefix listing.
type ListError struct {
	Prefix string
	Err    error
}

func (e *ListError) Error() string { return fmt.Sprintf("list %s: %v", e.Prefix, e.Err) }
func (e *ListError) Unwrap() error { return e.Err }

// DeleteError reports a failed delete. Deleting a missing key is not an error.
type DeleteError struct {
	Key string
	Err error
}

func (e *DeleteError) Error() string { return fmt.Sprintf("delete %s: %v", e.Key, e.Err) }
func (e *DeleteError) Unwrap() error { return e.Err }

// RenameError reports a failed rename, including a missing source key.
type RenameError struct {
	Key    string
	NewKey string
	Err    error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("rename %s to %s: %v", e.Key, e.NewKey, e.Err)
}
func (e *RenameError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Operation names the primitive an error came from: "upload", "list",
// "delete" or "rename". It returns "" for errors from elsewhere.
func Operation(err error) string {
	var (
		uploadErr *UploadError
		listErr   *ListError
		deleteErr *DeleteError
		renameErr *RenameError
	)
	switch {
	case errors.As(err, &uploadErr):
		return "upload"
	case errors.As(err, &listErr):
		return "list"
	case errors.As(err, &deleteErr):
		return "delete"
	case errors.As(err, &renameErr):
		return "rename"
	default:
		return ""
	}
}

// ensureKind wraps err in the error type of op unless it already is one.
func ensureKind(op, key string, err error) error {
	if err == nil || Operation(err) != "" {
		return err
	}
	switch op {
	case "upload":
		return &UploadError{Key: key, Err: err}
	case "list":
		return &ListError{Prefix: key, Err: err}
	case "delete":
		return &DeleteError{Key: key, Err: err}
	case "rename":
		return &RenameError{Key: key, Err: err}
	default:
		return err
	}
}
