// Package httpapi wires the HTTP transport (Gin) to the ingestion and feed
// services. It centralizes cross-cutting concerns: tracing, correlation IDs,
// scrubbed access logs, panic recovery, metrics, CORS, security headers,
// webhook authentication and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/video-feed-backend/internal/config"
	"github.com/tbourn/video-feed-backend/internal/feed"
	"github.com/tbourn/video-feed-backend/internal/http/handlers"
	"github.com/tbourn/video-feed-backend/internal/http/middleware"
	"github.com/tbourn/video-feed-backend/internal/services"
)

// maxNotificationBytes caps webhook bodies. Notifications carry URIs and a
// post body, never the media itself.
const maxNotificationBytes = 1 << 20

// Deps are the storage and network collaborators the routes are built on.
type Deps struct {
	Videos  services.VideoStore
	Blobs   services.BlobStore
	Fetcher services.AssetFetcher
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r.
//
// Middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs, secret header masked
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. CORS and security headers
//
// Route-level: POST / adds the body cap, the per-IP rate limiter and the
// shared-secret check (in that order, all before binding); GET / adds gzip.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Feed readers and previewers run in browsers on arbitrary origins.
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.SecretHeader},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services ← stores/fetcher
	ingestSvc := services.NewIngestService(deps.Fetcher, deps.Blobs, deps.Videos)
	feedSvc := services.NewFeedService(deps.Videos, feed.Channel{
		Title:       cfg.Feed.Title,
		Link:        cfg.Feed.URL,
		Description: cfg.Feed.Description,
	})
	h := handlers.New(ingestSvc, feedSvc)

	r.GET("/health", h.Health)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.POST("/",
		middleware.BodyLimit(maxNotificationBytes),
		rl.Handler(),
		middleware.SecretKey(cfg.WebhookSecret),
		h.Ingest,
	)
	r.GET("/", gzip.Gzip(gzip.DefaultCompression), h.Feed)
}
