package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/jwt"
	"salescrm/internal/pkg/response"
)

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuth requires a valid bearer token and puts the actor into the context.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(user.CtxUserID, claims.UserID)
		c.Set(user.CtxUsername, claims.Username)
		c.Set(user.CtxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}
