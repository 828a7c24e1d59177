package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salescrm/internal/domain/user"
)

// RequestLogger logs every request and recovers from panics.
// Errors attached with c.Error are logged with the request; 5xx responses log at error level.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().
					Str("request_id", requestID(c)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("panic", fmt.Sprint(recovered)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_SERVER_ERROR",
						"message": "Internal server error",
					},
				})
			}

			status := c.Writer.Status()
			ev := log.Info()
			switch {
			case status >= http.StatusInternalServerError || len(c.Errors) > 0:
				ev = log.Error()
			case status >= http.StatusBadRequest:
				ev = log.Warn()
			}

			ev = ev.
				Str("request_id", requestID(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("query", c.Request.URL.RawQuery).
				Int("status", status).
				Str("client_ip", c.ClientIP()).
				Dur("latency", time.Since(start))
			if id := c.GetInt64(user.CtxUserID); id > 0 {
				ev = ev.Int64("user_id", id)
			}
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
			ev.Msg("request")
		}()

		c.Next()
	}
}
