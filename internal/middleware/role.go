package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/response"
)

// AdminOnly requires the authenticated user to be an administrator.
// It must run after JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := user.ActorFrom(c)
		if !ok {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		if !actor.IsAdmin {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: admin only")
			c.Abort()
			return
		}

		c.Next()
	}
}
