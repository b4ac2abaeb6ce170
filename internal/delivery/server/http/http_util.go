package http

import (
	"github.com/gin-gonic/gin"

	jsonx "quill/internal/shared/json"
)

// writeJSON renders payload with the shared JSON codec so responses match
// what the asset store clients decode.
func writeJSON(c *gin.Context, status int, payload any) {
	data, err := jsonx.Marshal(payload)
	if err != nil {
		c.AbortWithStatusJSON(500, gin.H{"error": "failed to encode response"})
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
