package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quill/internal/published"
	"quill/internal/resources"
)

// mapError translates a service error into an HTTP status and a user-facing
// message. Unknown errors map to 500.
func mapError(err error) (int, string) {
	var (
		notFound *published.ContentNotFoundError
		fetchErr *published.FetchError
	)
	switch {
	case errors.Is(err, resources.ErrInvalidSlug):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, "published content not found"
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "published content could not be fetched"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(c *gin.Context, err error) {
	status, message := mapError(err)
	writeJSON(c, status, gin.H{"error": message})
	c.Abort()
}
