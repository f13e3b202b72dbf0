package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-authgate/screenpair/internal/ratelimit"
	"github.com/go-authgate/screenpair/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func respondError(c *gin.Context, status int, kind, description string) {
	c.JSON(status, gin.H{
		"error":             kind,
		"error_description": description,
	})
}

// respondServerError logs err and hides it from the client.
func respondServerError(c *gin.Context, err error, description string) {
	log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg(description)
	respondError(c, http.StatusInternalServerError, "server_error", description)
}

// respondPairingError maps a pairing rejection to its status. Kinds sharing
// a status still get distinct bodies.
func respondPairingError(c *gin.Context, pe *services.PairingError) {
	status := http.StatusBadRequest
	switch pe.Kind {
	case services.KindCodeNotFound:
		status = http.StatusNotFound
	case services.KindRateLimited:
		status = http.StatusTooManyRequests
	}
	respondError(c, status, string(pe.Kind), pe.Message)
}

func respondRateLimited(c *gin.Context, result ratelimit.Result) {
	minutes := result.BlockedMinutes()
	c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds()))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":               string(services.KindRateLimited),
		"error_description":   "Too many failed attempts. Try again in " + strconv.Itoa(minutes) + " minute(s).",
		"retry_after_minutes": minutes,
	})
}

// parseIDParam reads a positive integer route parameter, responding 400 when invalid.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
