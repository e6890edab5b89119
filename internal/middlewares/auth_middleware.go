package middlewares

import (
	"net/http"
	"strings"

	"buildtrack/internal/backend"

	"github.com/gin-gonic/gin"
)

// ForwardAuthorization passes the caller's bearer token through to the
// backend, which owns authentication. A request without a token is sent
// anonymously; a malformed header is rejected here.
func ForwardAuthorization(c *gin.Context) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		c.Next()
		return
	}

	// Expected format: "Bearer <token>"
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid Authorization format"})
		return
	}

	c.Request = c.Request.WithContext(backend.WithToken(c.Request.Context(), authHeader))
	c.Next()
}
