package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/server/handlers"
)

// Handlers groups the HTTP adapters the router mounts. Media is nil when
// photos are hosted remotely.
type Handlers struct {
	Plants      *handlers.PlantHandler
	Activities  *handlers.ActivityHandler
	Preferences *handlers.PreferencesHandler
	Media       *handlers.MediaHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.Media != nil {
		r.GET("/media/*key", h.Media.Serve)
	}

	api := r.Group("/api", handlers.RequireOwner())

	api.GET("/plants", h.Plants.List)
	api.POST("/plants", h.Plants.Create)
	api.GET("/plants/grouped", h.Plants.Grouped)
	api.GET("/plants/search", h.Plants.Search)
	api.POST("/plants/recategorize", h.Plants.Recategorize)
	api.PUT("/plants/:id", h.Plants.Update)
	api.DELETE("/plants/:id", h.Plants.Delete)

	api.GET("/catalog/categories", h.Plants.Categories)
	api.GET("/catalog/groups", h.Plants.Groups)

	api.GET("/activities", h.Activities.List)
	api.GET("/activities/stream", h.Activities.Stream)
	api.POST("/activities", h.Activities.Create)
	api.PUT("/activities/:id", h.Activities.Update)
	api.DELETE("/activities/:id", h.Activities.Delete)

	api.GET("/submissions/:id", h.Activities.Progress)
	api.POST("/submissions/:id/skip", h.Activities.Skip)

	api.GET("/preferences", h.Preferences.Get)
	api.PUT("/preferences", h.Preferences.Put)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("owner_id", c.GetHeader(handlers.OwnerHeader)))
	}
}
