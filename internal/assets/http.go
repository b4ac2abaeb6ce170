package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quill/internal/infra/httpclient"
	quillerrors "quill/internal/shared/errors"
	jsonx "quill/internal/shared/json"
	"quill/internal/shared/logging"
)

const (
	defaultMaxResponseBytes = 4 << 20
	errorSnippetBytes       = 512
)

// HTTPStoreConfig configures the REST client of the remote store.
type HTTPStoreConfig struct {
	BaseURL          string
	APIKey           string
	DeliveryURL      string // used when a response omits secure_url
	HTTPClient       *http.Client
	MaxResponseBytes int64
	Logger           logging.Logger
}

// HTTPStore talks to the asset store's JSON API:
//
//	POST   /upload               {file, public_id, resource_type, overwrite}
//	GET    /resources?prefix=p   {resources: [...], next_cursor}
//	DELETE /resources?public_id=k
//	POST   /rename               {from_public_id, to_public_id, overwrite}
type HTTPStore struct {
	base     string
	apiKey   string
	delivery string
	client   *http.Client
	limit    int64
	logger   logging.Logger
}

// NewHTTPStore validates cfg and builds the client.
func NewHTTPStore(cfg HTTPStoreConfig) (*HTTPStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("asset store: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("asset store: invalid base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(30*time.Second, cfg.Logger)
	}
	limit := cfg.MaxResponseBytes
	if limit <= 0 {
		limit = defaultMaxResponseBytes
	}
	delivery := strings.TrimRight(cfg.DeliveryURL, "/")
	if delivery == "" {
		delivery = base
	}
	return &HTTPStore{
		base:     base,
		apiKey:   cfg.APIKey,
		delivery: delivery,
		client:   client,
		limit:    limit,
		logger:   logging.OrNop(cfg.Logger),
	}, nil
}

type resourcePayload struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
	Checksum     string `json:"checksum,omitempty"`
	Bytes        int64  `json:"bytes,omitempty"`
}

type uploadPayload struct {
	File         string `json:"file"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Overwrite    bool   `json:"overwrite"`
}

type listPayload struct {
	Resources  []resourcePayload `json:"resources"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type renamePayload struct {
	FromPublicID string `json:"from_public_id"`
	ToPublicID   string `json:"to_public_id"`
	Overwrite    bool   `json:"overwrite"`
}

// Upload sends the payload as a base64 data URI.
func (s *HTTPStore) Upload(ctx context.Context, req UploadRequest) (Descriptor, error) {
	mime := DetectMIME(req.MimeType, req.Data)
	kind := req.Kind
	if kind == "" {
		kind = KindForMIME(mime)
	}
	body := uploadPayload{
		File:         DataURI(mime, req.Data),
		PublicID:     req.Key,
		ResourceType: string(kind),
		Overwrite:    true,
	}
	var resp resourcePayload
	if err := s.do(ctx, http.MethodPost, "/upload", nil, body, &resp); err != nil {
		return Descriptor{}, &UploadError{Key: req.Key, Err: err}
	}
	if resp.PublicID == "" {
		resp.PublicID = req.Key
	}
	if resp.ResourceType == "" {
		resp.ResourceType = string(kind)
	}
	if resp.Bytes == 0 {
		resp.Bytes = int64(len(req.Data))
	}
	return s.descriptor(resp), nil
}

// ListByPrefix follows next_cursor until the listing is exhausted.
func (s *HTTPStore) ListByPrefix(ctx context.Context, prefix string) ([]Descriptor, error) {
	out := make([]Descriptor, 0)
	cursor := ""
	for {
		query := url.Values{"prefix": {prefix}}
		if cursor != "" {
			query.Set("next_cursor", cursor)
		}
		var page listPayload
		if err := s.do(ctx, http.MethodGet, "/resources", query, nil, &page); err != nil {
			return nil, &ListError{Prefix: prefix, Err: err}
		}
		for _, resource := range page.Resources {
			out = append(out, s.descriptor(resource))
		}
		if page.NextCursor == "" || page.NextCursor == cursor {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// Delete treats 404 as success.
func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	err := s.do(ctx, http.MethodDelete, "/resources", url.Values{"public_id": {key}}, nil, nil)
	if err == nil || quillerrors.StatusCode(err) == http.StatusNotFound {
		return nil
	}
	return &DeleteError{Key: key, Err: err}
}

// Rename fails with ErrNotFound when key does not exist.
func (s *HTTPStore) Rename(ctx context.Context, key, newKey string) (Descriptor, error) {
	body := renamePayload{FromPublicID: key, ToPublicID: newKey, Overwrite: true}
	var resp resourcePayload
	if err := s.do(ctx, http.MethodPost, "/rename", nil, body, &resp); err != nil {
		if quillerrors.StatusCode(err) == http.StatusNotFound {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return Descriptor{}, &RenameError{Key: key, NewKey: newKey, Err: err}
	}
	if resp.PublicID == "" {
		resp.PublicID = newKey
	}
	return s.descriptor(resp), nil
}

func (s *HTTPStore) descriptor(resource resourcePayload) Descriptor {
	kind := Kind(resource.ResourceType)
	if kind == "" {
		kind = KindImage
	}
	secure := resource.SecureURL
	if secure == "" {
		secure = DeliveryURL(s.delivery, kind, resource.PublicID)
	}
	return Descriptor{
		Key:       resource.PublicID,
		SecureURL: secure,
		Kind:      kind,
		Checksum:  resource.Checksum,
		Bytes:     resource.Bytes,
	}
}

func (s *HTTPStore) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := s.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if in != nil {
		payload, err := jsonx.Marshal(in)
		if err != nil {
			return quillerrors.NewPermanentError(err, "encode request: "+err.Error())
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return quillerrors.NewPermanentError(err, "build request: "+err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := httpclient.ReadAllWithLimit(resp.Body, s.limit)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Debug("asset store %s %s returned %d", method, path, resp.StatusCode)
		return quillerrors.ClassifyStatus(resp.StatusCode, snippet(data))
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := jsonx.Unmarshal(data, out); err != nil {
		return quillerrors.NewPermanentError(err, "decode response: "+err.Error())
	}
	return nil
}

func snippet(data []byte) string {
	text := strings.TrimSpace(string(data))
	if len(text) > errorSnippetBytes {
		text = text[:errorSnippetBytes]
	}
	return text
}

var _ Store = (*HTTPStore)(nil)
