package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecretKey rejects requests whose X-Secret-Key header does not equal secret.
// An empty secret rejects every request. The check runs before the body is
// read, so unauthorized callers never trigger downstream work.
//
//	HTTP/1.1 401 Unauthorized
//	{ "request_id": "<uuid>", "code": "unauthorized", "message": "invalid secret key" }
func SecretKey(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(SecretHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			LoggerFrom(c).Warn().Msg("webhook secret mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "invalid secret key",
			})
			return
		}
		c.Next()
	}
}
