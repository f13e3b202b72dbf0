package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	SessionUserID = "user_id"

	// DeviceTokenHeader carries a player's device token.
	DeviceTokenHeader = "X-Device-Token"

	ContextUserID        = "user_id"
	ContextUser          = "user"
	ContextDeviceBinding = "device_binding"
)

// RequireAuth rejects requests without a logged-in session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Login required",
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// RequireAdmin is a middleware that requires the user to have admin role
// This middleware should be used after RequireAuth
func RequireAdmin(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userService.GetUserByID(c.Request.Context(), c.GetString(ContextUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "access_denied",
				"error_description": "User not found",
			})
			return
		}

		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "access_denied",
				"error_description": "Admin access required",
			})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireDeviceToken authenticates a player by its X-Device-Token header
// against the screen named by the :id route parameter.
func RequireDeviceToken(pairing *services.PairingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		screenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || screenID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_request",
				"error_description": "Invalid screen id",
			})
			return
		}

		binding, err := pairing.AuthenticateDevice(
			c.Request.Context(),
			c.GetHeader(DeviceTokenHeader),
			uint(screenID),
		)
		if err != nil {
			if !errors.Is(err, services.ErrBindingNotFound) {
				log.Error().Err(err).Uint64("screen_id", screenID).Msg("device authentication failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":             "server_error",
					"error_description": "Failed to authenticate device",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "invalid_device_token",
				"error_description": "Device token is missing, unknown or revoked",
			})
			return
		}

		c.Set(ContextDeviceBinding, binding)
		c.Next()
	}
}

// DeviceBinding returns the binding stored by RequireDeviceToken.
func DeviceBinding(c *gin.Context) *models.DeviceBinding {
	binding, _ := c.MustGet(ContextDeviceBinding).(*models.DeviceBinding)
	return binding
}
