package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quill/internal/resources"
	"quill/internal/shared/logging"
)

const defaultMaxUploadBytes int64 = 64 << 20

// Syncer is the write side the router drives.
type Syncer interface {
	Synchronize(ctx context.Context, req resources.Request) (resources.Result, error)
	Purge(ctx context.Context, slug string) (int, error)
}

// ContentReader is the read side the router drives.
type ContentReader interface {
	FetchPublishedContent(ctx context.Context, slug string) (string, error)
}

// RouterDeps are the services behind the routes.
type RouterDeps struct {
	Syncer  Syncer
	Reader  ContentReader
	Metrics http.Handler
	Logger  logging.Logger
}

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	EnableCORS     bool
	Debug          bool
	MaxUploadBytes int64
}

// NewRouter creates the gin engine with every endpoint.
func NewRouter(deps RouterDeps, cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.OrNop(deps.Logger)
	if logging.IsNil(deps.Logger) {
		logger = logging.NewComponentLogger("Router")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggingMiddleware(logger))
	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Log-Id"}
		corsConfig.ExposeHeaders = []string{"X-Log-Id"}
		engine.Use(cors.New(corsConfig))
	}

	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	handler := &ResourcesHandler{
		syncer:    deps.Syncer,
		reader:    deps.Reader,
		maxUpload: maxUpload,
		logger:    logger,
	}

	api := engine.Group("/api")
	api.GET("/health", handleHealth)
	posts := api.Group("/posts/:slug")
	posts.POST("/resources", handler.HandleSynchronize)
	posts.DELETE("/resources", handler.HandlePurge)
	posts.GET("/content", handler.HandleGetContent)

	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	return engine
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
