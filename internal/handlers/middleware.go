package handler

import (
	"net/http"

	"lumen-finance-backend/internal/services/auth"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests without a signed-in session. Protected
// handlers can then assume a token is present.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.TokenFromSession(c); !ok {
			fail(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}
