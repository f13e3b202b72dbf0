package middleware

import (
	"net/http"

	"github.com/go-authgate/screenpair/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	csrfTokenKey = "csrf_token"
	// CSRFHeader must echo the session's CSRF token on state-changing requests.
	CSRFHeader = "X-CSRF-Token"
)

// CSRFMiddleware protects session-authenticated, state-changing requests.
// The token is handed out by EnsureCSRFToken and must come back in CSRFHeader.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := EnsureCSRFToken(c)
		if err != nil {
			log.Error().Err(err).Msg("failed to save CSRF token")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":             "server_error",
				"error_description": "Failed to initialize session",
			})
			return
		}

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			submitted := c.GetHeader(CSRFHeader)
			if submitted == "" || !util.ConstantTimeEqual(submitted, token) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":             "csrf_failed",
					"error_description": "CSRF token validation failed",
				})
				return
			}
		}

		c.Next()
	}
}

// EnsureCSRFToken returns the session's CSRF token, creating it if needed.
func EnsureCSRFToken(c *gin.Context) (string, error) {
	if token, ok := c.Get(csrfTokenKey); ok {
		return token.(string), nil
	}

	session := sessions.Default(c)
	token, _ := session.Get(csrfTokenKey).(string)
	if token == "" {
		generated, err := util.CryptoRandomString(32)
		if err != nil {
			return "", err
		}
		token = generated
		session.Set(csrfTokenKey, token)
		if err := session.Save(); err != nil {
			return "", err
		}
	}

	c.Set(csrfTokenKey, token)
	return token, nil
}
