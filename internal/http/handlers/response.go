// Package handlers provides the HTTP handlers of the webhook and the feed.
//
// This file defines the response helpers shared by all endpoints. Errors are
// always written as an ErrorResponse with a stable code; fail() logs 5xx with
// the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/video-feed-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code"`
	// Human-readable message
	Message string `json:"message"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// accepted ends a request that succeeded with no response body.
func accepted(c *gin.Context) {
	c.Status(http.StatusOK)
}
