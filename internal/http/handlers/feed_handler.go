// Feed HTTP handler.
//
//   - GET /   (Media RSS document of the latest items)
package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/video-feed-backend/internal/feed"
)

// Feed godoc
// @ID          getFeed
// @Summary     Media RSS feed
// @Description Returns the latest 20 videos, newest first. The document is rendered fully
// @Description before any byte is sent, so failures always produce an error envelope.
// @Tags        Feed
// @Produce     application/rss+xml
//
// @Success     200  {string}  string                  "MRSS document"
// @Failure     500  {object}  handlers.ErrorResponse  "Error fetching video feed"
// @Router      / [get]
func (h *Handlers) Feed(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.feedSvc.Render(c.Request.Context(), &buf); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeFeedFailed, "Error fetching video feed: "+err.Error())
		return
	}
	c.Data(http.StatusOK, feed.ContentType, buf.Bytes())
}
