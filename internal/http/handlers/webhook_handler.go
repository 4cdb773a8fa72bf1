// Webhook HTTP handler.
//
//   - POST /   (ingest one content notification)
//
// Authentication (X-Secret-Key) is enforced by middleware before this handler
// runs, so the body is only read for authorized callers.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/video-feed-backend/internal/domain"
	"github.com/tbourn/video-feed-backend/internal/http/middleware"
	"github.com/tbourn/video-feed-backend/internal/services"
)

// NotificationRequest is the JSON payload delivered by the publishing
// workflow.
type NotificationRequest struct {
	// ID uniquely identifies the content item; a repeated ID overwrites.
	ID string `json:"id" binding:"required"`
	// Body is the post text, may be empty.
	Body string `json:"body"`
	// SentTime is the ISO-8601 publish time.
	SentTime string `json:"sent_time" binding:"required"`
	// State is the publication state as reported upstream.
	State string `json:"state"`
	// Thumbnail is the source URI of the preview image.
	Thumbnail string `json:"thumbnail" binding:"required"`
	// URI is the source URI of the video file.
	URI string `json:"uri" binding:"required"`
	// PostURI links to the origin post, may be empty.
	PostURI string `json:"post_uri"`
}

func (r NotificationRequest) toDomain() domain.Notification {
	return domain.Notification{
		ID:       r.ID,
		Body:     r.Body,
		SentTime: r.SentTime,
		State:    r.State,
		VideoURI: r.URI,
		ThumbURI: r.Thumbnail,
		PostURI:  r.PostURI,
	}
}

// Ingest godoc
// @ID          ingestNotification
// @Summary     Ingest a content notification
// @Description Downloads the video and thumbnail, stores both in the bucket and saves the record.
// @Description Responds once the record is stored; the body is empty on success.
// @Tags        Webhook
// @Accept      json
// @Produce     json
//
// @Param       X-Secret-Key  header  string                        true  "Shared webhook secret"
// @Param       body          body    handlers.NotificationRequest  true  "Content notification"
//
// @Success     200
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid body (bad_request) or asset download failed (fetch_failed)"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or wrong secret"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse  "Upload, timestamp or record store failure (ingest_failed)"
// @Router      / [post]
func (h *Handlers) Ingest(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid notification: "+err.Error())
		return
	}

	lg := middleware.LoggerFrom(c)
	lg.Info().Str("video_id", req.ID).Msg("notification received")

	// A started run finishes even if the caller goes away. Trace and logger
	// values stay on the context; its cancellation does not.
	ctx := context.WithoutCancel(c.Request.Context())
	if _, err := h.ingestSvc.Ingest(ctx, req.toDomain()); err != nil {
		if errors.Is(err, services.ErrFetch) {
			fail(c, http.StatusBadRequest, ErrCodeFetchFailed, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
		return
	}
	accepted(c)
}
