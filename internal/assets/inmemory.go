package assets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

type memoryObject struct {
	data     []byte
	kind     Kind
	mime     string
	checksum string
}

// InMemoryStore keeps assets in process memory. It backs the "memory" store
// backend for local development and the package tests.
type InMemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	baseCDN string
}

// NewInMemoryStore constructs a store whose URLs live under baseCDN.
func NewInMemoryStore(baseCDN string) *InMemoryStore {
	return &InMemoryStore{objects: make(map[string]memoryObject), baseCDN: baseCDN}
}

// Upload stores a copy of the payload, replacing any previous object at Key.
func (m *InMemoryStore) Upload(ctx context.Context, req UploadRequest) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, &UploadError{Key: req.Key, Err: err}
	}
	if strings.TrimSpace(req.Key) == "" {
		return Descriptor{}, &UploadError{Key: req.Key, Err: errors.New("empty key")}
	}
	if len(req.Data) == 0 {
		return Descriptor{}, &UploadError{Key: req.Key, Err: errors.New("empty payload")}
	}
	mime := DetectMIME(req.MimeType, req.Data)
	kind := req.Kind
	if kind == "" {
		kind = KindForMIME(mime)
	}
	obj := memoryObject{
		data:     append([]byte(nil), req.Data...),
		kind:     kind,
		mime:     mime,
		checksum: Checksum(req.Data),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[req.Key] = obj
	return m.describe(req.Key, obj), nil
}

// ListByPrefix returns every object under prefix, sorted by key.
func (m *InMemoryStore) ListByPrefix(ctx context.Context, prefix string) ([]Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ListError{Prefix: prefix, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Descriptor, 0)
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, m.describe(key, obj))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes key; missing keys are ignored.
func (m *InMemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &DeleteError{Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Rename moves key to newKey, overwriting newKey.
func (m *InMemoryStore) Rename(ctx context.Context, key, newKey string) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, &RenameError{Key: key, NewKey: newKey, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return Descriptor{}, &RenameError{Key: key, NewKey: newKey, Err: ErrNotFound}
	}
	delete(m.objects, key)
	m.objects[newKey] = obj
	return m.describe(newKey, obj), nil
}

// Fetch returns the payload stored at key, serving the content reader when
// the memory backend is configured.
func (m *InMemoryStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := m.Bytes(key)
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// Bytes returns the stored payload for assertions.
func (m *InMemoryStore) Bytes(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// Len returns the number of stored objects.
func (m *InMemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *InMemoryStore) describe(key string, obj memoryObject) Descriptor {
	return Descriptor{
		Key:       key,
		SecureURL: DeliveryURL(m.baseCDN, obj.kind, key),
		Kind:      obj.kind,
		Checksum:  obj.checksum,
		Bytes:     int64(len(obj.data)),
	}
}

var _ Store = (*InMemoryStore)(nil)
