// Package assets is a thin client over the remote content-addressable asset
// store. It exposes four primitives (upload, list by prefix, delete, rename)
// and carries no business logic; decorators add retries, deadlines and
// telemetry.
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Kind distinguishes raw text resources from images. The values double as
// the store's resource_type.
type Kind string

const (
	KindRaw   Kind = "raw"
	KindImage Kind = "image"
)

// Descriptor is the store's view of an uploaded asset.
type Descriptor struct {
	Key       string
	SecureURL string
	Kind      Kind
	// Checksum is the hex sha256 of the payload when the store reports one.
	Checksum string
	Bytes    int64
}

// UploadRequest captures one payload headed for Key. Uploads always
// overwrite, so repeating a request is safe.
type UploadRequest struct {
	Key      string
	Kind     Kind
	MimeType string
	Filename string
	Data     []byte
}

// Store abstracts the remote asset store so the synchronizer stays unit
// testable.
type Store interface {
	Upload(ctx context.Context, req UploadRequest) (Descriptor, error)
	ListByPrefix(ctx context.Context, prefix string) ([]Descriptor, error)
	Delete(ctx context.Context, key string) error
	Rename(ctx context.Context, key, newKey string) (Descriptor, error)
}

// DeliveryURL builds the public URL of key under base. Stores that do not
// return a secure URL and the content reader both rely on this layout.
func DeliveryURL(base string, kind Kind, key string) string {
	base = strings.TrimRight(base, "/")
	key = strings.TrimLeft(key, "/")
	if kind == "" {
		kind = KindImage
	}
	return base + "/" + string(kind) + "/upload/" + key
}

// Checksum returns the hex sha256 of data, the form Descriptor.Checksum uses.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
