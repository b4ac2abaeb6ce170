package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quill/internal/shared/id"
	"quill/internal/shared/logging"
)

const logIDHeader = "X-Log-Id"

func resolveLogID(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{logIDHeader, "X-Request-Id", "X-Correlation-Id"} {
		if value := strings.TrimSpace(r.Header.Get(header)); value != "" {
			return value
		}
	}
	return ""
}

// LoggingMiddleware tags each request with a log id, echoes it in the
// X-Log-Id response header and logs the outcome.
func LoggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logID := id.LogIDFromContext(ctx)
		if logID == "" {
			logID = resolveLogID(c.Request)
			if logID == "" {
				logID = id.NewLogID()
			}
			ctx = id.WithLogID(ctx, logID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Header(logIDHeader, logID)

		started := time.Now()
		c.Next()

		reqLogger := logging.WithLogID(logger, logID)
		reqLogger.Info("%s %s -> %d in %s from %s",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(started).Round(time.Millisecond), c.ClientIP())
	}
}
