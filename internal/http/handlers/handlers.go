package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/video-feed-backend/internal/domain"
)

// IngestService runs the ingestion pipeline for one notification.
//
// Implementations must be safe for concurrent use and honor ctx.
type IngestService interface {
	Ingest(ctx context.Context, n domain.Notification) (*domain.Video, error)
}

// FeedService renders the public feed document.
//
// Implementations must be safe for concurrent use and honor ctx.
type FeedService interface {
	Render(ctx context.Context, w io.Writer) error
}

// Handlers groups the webhook and feed endpoints. It depends on service
// interfaces only.
type Handlers struct {
	ingestSvc IngestService
	feedSvc   FeedService
}

// New constructs Handlers bound to the given services.
func New(ingestSvc IngestService, feedSvc FeedService) *Handlers {
	return &Handlers{ingestSvc: ingestSvc, feedSvc: feedSvc}
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  map[string]string
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
