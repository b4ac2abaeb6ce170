package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quill/internal/resources"
	"quill/internal/shared/logging"
)

const (
	fieldMarkdown = "markdown"
	fieldCover    = "cover"
	fieldGallery  = "gallery"
	fieldDelete   = "delete"
)

// ResourcesHandler serves the post resource endpoints.
type ResourcesHandler struct {
	syncer    Syncer
	reader    ContentReader
	maxUpload int64
	logger    logging.Logger
}

type slotErrorResponse struct {
	Slot    string `json:"slot"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

type collisionResponse struct {
	Name     string `json:"name"`
	Kept     string `json:"kept"`
	Rejected string `json:"rejected"`
}

type synchronizeResponse struct {
	Bundle      resources.Bundle    `json:"bundle"`
	Errors      []slotErrorResponse `json:"errors,omitempty"`
	Title       string              `json:"title,omitempty"`
	FrontMatter map[string]any      `json:"front_matter,omitempty"`
	Unmatched   int                 `json:"unmatched_references"`
	Collisions  []collisionResponse `json:"collisions,omitempty"`
	Warning     string              `json:"front_matter_warning,omitempty"`
}

// HandleSynchronize accepts a multipart form carrying any of the markdown,
// cover, gallery and delete fields. A partial failure answers 207 with the
// bundle that reflects what actually happened.
func (h *ResourcesHandler) HandleSynchronize(c *gin.Context) {
	slug := c.Param("slug")
	if err := resources.ValidateSlug(slug); err != nil {
		writeError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	req, err := readSyncRequest(c, slug)
	if err != nil {
		if isBodyTooLarge(err) {
			writeJSON(c, http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", h.maxUpload)})
			return
		}
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncer.Synchronize(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Partial() {
		status = http.StatusMultiStatus
		logging.FromContext(c.Request.Context(), h.logger).Warn("synchronize %s finished with %d slot errors", slug, len(result.Errors))
	}
	writeJSON(c, status, toSynchronizeResponse(result))
}

// HandleGetContent returns the published markdown for a slug.
func (h *ResourcesHandler) HandleGetContent(c *gin.Context) {
	content, err := h.reader.FetchPublishedContent(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(content))
}

// HandlePurge deletes everything stored under a slug.
func (h *ResourcesHandler) HandlePurge(c *gin.Context) {
	deleted, err := h.syncer.Purge(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, resources.ErrInvalidSlug) {
		writeError(c, err)
		return
	}
	if err != nil {
		logging.FromContext(c.Request.Context(), h.logger).Error("purge %s: %v", c.Param("slug"), err)
		writeJSON(c, http.StatusBadGateway, gin.H{"deleted": deleted, "error": "some resources could not be deleted"})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"deleted": deleted})
}

func readSyncRequest(c *gin.Context, slug string) (resources.Request, error) {
	req := resources.Request{Slug: slug}
	form, err := c.MultipartForm()
	if err != nil {
		return req, fmt.Errorf("parse multipart form: %w", err)
	}

	if files := form.File[fieldMarkdown]; len(files) > 0 {
		input, err := readInput(files[0])
		if err != nil {
			return req, err
		}
		req.Markdown = &input
	}
	if files := form.File[fieldCover]; len(files) > 0 {
		input, err := readInput(files[0])
		if err != nil {
			return req, err
		}
		req.Cover = &input
	}
	for _, fh := range append(form.File[fieldGallery], form.File[fieldGallery+"[]"]...) {
		input, err := readInput(fh)
		if err != nil {
			return req, err
		}
		req.Gallery = append(req.Gallery, input)
	}
	for _, key := range append(form.Value[fieldDelete], form.Value[fieldDelete+"[]"]...) {
		if key = strings.TrimSpace(key); key != "" {
			req.DeleteGalleryKeys = append(req.DeleteGalleryKeys, key)
		}
	}
	return req, nil
}

func readInput(fh *multipart.FileHeader) (resources.Input, error) {
	file, err := fh.Open()
	if err != nil {
		return resources.Input{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return resources.Input{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return resources.Input{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func toSynchronizeResponse(result resources.Result) synchronizeResponse {
	resp := synchronizeResponse{
		Bundle:    result.Bundle,
		Unmatched: result.Unmatched,
	}
	if resp.Bundle.GalleryURLs == nil {
		resp.Bundle.GalleryURLs = []string{}
	}
	for _, slotErr := range result.Errors {
		resp.Errors = append(resp.Errors, slotErrorResponse{
			Slot:    string(slotErr.Slot),
			Key:     slotErr.Key,
			Message: slotErr.Message(),
			Detail:  slotErr.Error(),
		})
	}
	if result.Content != nil {
		resp.Title = result.Content.Title()
		if len(result.Content.FrontMatter) > 0 {
			resp.FrontMatter = result.Content.FrontMatter
		}
	}
	for _, collision := range result.Collisions {
		resp.Collisions = append(resp.Collisions, collisionResponse{
			Name:     collision.Name,
			Kept:     collision.Kept,
			Rejected: collision.Rejected,
		})
	}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}
	return resp
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}
