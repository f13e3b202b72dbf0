package middleware

import (
	"net/http"
	"strings"

	"github.com/go-authgate/screenpair/internal/util"

	"github.com/gin-gonic/gin"
)

// MetricsAuthMiddleware protects the metrics endpoint with a Bearer token.
// An empty token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || provided == "" {
			unauthorized(c, "Bearer token required")
			return
		}
		if !util.ConstantTimeEqual(provided, token) {
			unauthorized(c, "Invalid token")
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context, description string) {
	c.Header("WWW-Authenticate", `Bearer realm="Metrics"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthorized",
		"error_description": description,
	})
}
