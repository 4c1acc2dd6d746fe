package middleware

import (
	"context"
	"net/http"
	"strings"

	"techservice/internal/pkg/response"
	"techservice/internal/pkg/token"

	"github.com/gin-gonic/gin"
)

// TokenValidator runs the full verification chain: signature, expiry, type,
// then revocation. Implemented by the auth service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenStr string) (*token.Claims, error)
}

// JWTAuth authenticates a bearer access token and injects the parsed claims
// into the request context. All verification failures collapse to one
// generic message; which check failed is not leaked to the client.
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Empty token")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	}
}
