package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/auth"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
	"github.com/charlesng35/taskhub/pkg/response"
)

const (
	// CtxUserIDKey holds the authenticated user's id in the gin context.
	CtxUserIDKey = "auth.user_id"
	// CtxUserEmailKey holds the authenticated user's email in the gin context.
	CtxUserEmailKey = "auth.user_email"
)

// RequireAuth validates the Bearer token and stores the caller's identity in
// the request context. Requests without a valid token are rejected before
// reaching any handler.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtService.Verify(strings.TrimSpace(token))
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}

// UserID extracts the authenticated user's id from the gin context. The
// second return is false on unauthenticated requests.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
