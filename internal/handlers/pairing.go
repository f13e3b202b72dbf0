package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/ratelimit"
	"github.com/go-authgate/screenpair/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// PairingHandler serves the public endpoints players and the activation
// page call. Redemption and claim endpoints are guarded by the failure limiter.
type PairingHandler struct {
	pairingService *services.PairingService
	deviceService  *services.DeviceBindingService
	auditService   *services.AuditService
	limiter        *ratelimit.Limiter
	metrics        metrics.Recorder
	config         *config.Config
}

func NewPairingHandler(
	ps *services.PairingService,
	ds *services.DeviceBindingService,
	as *services.AuditService,
	limiter *ratelimit.Limiter,
	m metrics.Recorder,
	cfg *config.Config,
) *PairingHandler {
	return &PairingHandler{
		pairingService: ps,
		deviceService:  ds,
		auditService:   as,
		limiter:        limiter,
		metrics:        m,
		config:         cfg,
	}
}

type activateRequest struct {
	Code       string `json:"code"       binding:"required"`
	DeviceInfo string `json:"deviceInfo"`
}

// Activate handles POST /api/screens/activate
//
//	@Summary		Activate device
//	@Description	Redeem an activation code and bind the calling device to its screen
//	@Tags			Pairing
//	@Accept			json
//	@Produce		json
//	@Param			request	body	object{code=string,deviceInfo=string}	true	"Activation code"
//	@Success		200	{object}	object{deviceToken=string,screenId=int,bindingId=int}	"Device bound"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid, expired or used code"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Code not found"
//	@Failure		429	{object}	object{error=string,error_description=string,retry_after_minutes=int}	"Too many failed attempts"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens/activate [post]
func (h *PairingHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	binding, ok := h.redeem(c, req.Code, req.DeviceInfo, nil)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deviceToken": binding.DeviceToken,
		"screenId":    binding.ScreenID,
		"bindingId":   binding.ID,
	})
}

type playerActivateRequest struct {
	Code       string `json:"code"       binding:"required"`
	ScreenID   uint   `json:"screenId"   binding:"required"`
	DeviceInfo string `json:"deviceInfo"`
}

// PlayerActivate handles POST /api/player/activate, where the player also
// names the screen it displays.
//
//	@Summary		Activate player
//	@Description	Redeem an activation code for the screen the player displays
//	@Tags			Pairing
//	@Accept			json
//	@Produce		json
//	@Param			request	body	object{code=string,screenId=int,deviceInfo=string}	true	"Activation code and screen"
//	@Success		200	{object}	object{deviceToken=string,bindingId=int}	"Device bound"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid, expired or used code, or screen mismatch"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Code not found"
//	@Failure		429	{object}	object{error=string,error_description=string,retry_after_minutes=int}	"Too many failed attempts"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/player/activate [post]
func (h *PairingHandler) PlayerActivate(c *gin.Context) {
	var req playerActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "code and screenId are required")
		return
	}

	binding, ok := h.redeem(c, req.Code, req.DeviceInfo, &req.ScreenID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deviceToken": binding.DeviceToken,
		"bindingId":   binding.ID,
	})
}

// redeem runs a redemption behind the failure limiter and writes the error
// response itself when it returns false.
func (h *PairingHandler) redeem(
	c *gin.Context,
	code string,
	deviceInfo string,
	expectedScreenID *uint,
) (*models.DeviceBinding, bool) {
	ctx := c.Request.Context()
	ip := c.ClientIP()

	if !h.allow(c, ip, models.BindingFlowCode) {
		return nil, false
	}

	binding, err := h.pairingService.RedeemCode(ctx, code, deviceInfo, expectedScreenID)
	if err != nil {
		pe, ok := services.AsPairingError(err)
		if !ok {
			respondServerError(c, err, "Failed to activate device")
			return nil, false
		}
		h.recordFailure(ctx, ip)
		respondPairingError(c, pe)
		return nil, false
	}

	h.clearFailures(ctx, ip)
	return binding, true
}

// allow reports whether ip may attempt a redemption or claim, writing the
// 429 response when it may not. Limiter storage errors fail open.
func (h *PairingHandler) allow(c *gin.Context, ip, flow string) bool {
	result, err := h.limiter.Check(c.Request.Context(), ip)
	if err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("activation rate limit check failed")
		return true
	}
	if result.Allowed {
		return true
	}

	h.metrics.RecordActivationAttempt(flow, string(services.KindRateLimited))
	log.Info().
		Str("ip", ip).
		Int("retry_after_minutes", result.BlockedMinutes()).
		Msg("activation attempt rate limited")
	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventRateLimitExceeded,
		Severity:      models.SeverityWarning,
		ActorIP:       ip,
		Action:        "Activation attempt rate limited",
		Details:       models.AuditDetails{"flow": flow},
		Success:       false,
		RequestPath:   c.Request.URL.Path,
		RequestMethod: c.Request.Method,
		UserAgent:     c.Request.UserAgent(),
	})
	respondRateLimited(c, result)
	return false
}

func (h *PairingHandler) recordFailure(ctx context.Context, ip string) {
	result, err := h.limiter.RecordFailure(ctx, ip)
	if err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("failed to record activation failure")
		return
	}
	if !result.Allowed {
		h.metrics.RecordActivationBlocked()
	}
}

func (h *PairingHandler) clearFailures(ctx context.Context, ip string) {
	if err := h.limiter.Clear(ctx, ip); err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("failed to clear activation failures")
	}
}

type verifyRequest struct {
	DeviceToken string `json:"deviceToken"`
	ScreenID    uint   `json:"screenId"`
}

// Verify handles POST /api/player/verify. Unknown, revoked and malformed
// tokens all answer bound=false; only an unparseable body is rejected.
//
//	@Summary		Verify device
//	@Description	Report whether a device token is bound to the screen; the token may also come from the X-Device-Token header
//	@Tags			Pairing
//	@Accept			json
//	@Produce		json
//	@Param			request	body	object{deviceToken=string,screenId=int}	true	"Device token and screen"
//	@Success		200	{object}	object{bound=bool,bindingId=int,playable=bool}	"Binding status"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Malformed request body"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/player/verify [post]
func (h *PairingHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}
	if req.DeviceToken == "" {
		req.DeviceToken = c.GetHeader(middleware.DeviceTokenHeader)
	}

	result, err := h.pairingService.VerifyBinding(c.Request.Context(), req.DeviceToken, req.ScreenID)
	if err != nil {
		respondServerError(c, err, "Failed to verify device")
		return
	}

	if !result.Bound {
		c.JSON(http.StatusOK, gin.H{"bound": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bound":     true,
		"bindingId": result.BindingID,
		"playable":  result.Playable,
	})
}

// Heartbeat handles POST /api/screens/:id/heartbeat (device token auth)
//
//	@Summary		Heartbeat
//	@Description	Record that a bound device is alive
//	@Tags			Pairing
//	@Produce		json
//	@Security		DeviceToken
//	@Param			id	path	int	true	"Screen ID"
//	@Success		200	{object}	object{ok=bool,playable=bool}	"Heartbeat recorded"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Device not bound"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens/{id}/heartbeat [post]
func (h *PairingHandler) Heartbeat(c *gin.Context) {
	playable, err := h.pairingService.Heartbeat(c.Request.Context(), middleware.DeviceBinding(c))
	if err != nil {
		respondServerError(c, err, "Failed to record heartbeat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "playable": playable})
}

// CurrentCode handles GET /api/player/:id/activation-code
//
//	@Summary		Current activation code
//	@Description	Return the screen's unexpired activation code, issuing a new one when none is left or it is about to expire
//	@Tags			Player
//	@Produce		json
//	@Param			id	path	int	true	"Screen ID"
//	@Success		200	{object}	object{code=string,expiresAt=string,pollingToken=string,qrPayload=string,pollInterval=int}	"Current code"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid screen ID"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Screen not found"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/player/{id}/activation-code [get]
func (h *PairingHandler) CurrentCode(c *gin.Context) {
	code, ok := h.currentCode(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"code":         code.Code,
		"expiresAt":    code.ExpiresAt,
		"pollingToken": code.PollingToken,
		"qrPayload":    code.QRPayload(),
		"pollInterval": h.config.PollingInterval,
	})
}

// CurrentCodeQR handles GET /api/player/:id/activation-code/qr.png
//
//	@Summary		Current activation code QR
//	@Description	Render the current activation code as a PNG QR code
//	@Tags			Player
//	@Produce		png
//	@Param			id	path	int	true	"Screen ID"
//	@Success		200	{file}	binary	"QR code image"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid screen ID"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Screen not found"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/player/{id}/activation-code/qr.png [get]
func (h *PairingHandler) CurrentCodeQR(c *gin.Context) {
	code, ok := h.currentCode(c)
	if !ok {
		return
	}

	png, err := qrcode.Encode(code.QRPayload(), qrcode.Medium, qrImageSize)
	if err != nil {
		respondServerError(c, err, "Failed to render QR code")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *PairingHandler) currentCode(c *gin.Context) (*models.ActivationCode, bool) {
	screenID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	code, err := h.pairingService.CurrentCode(c.Request.Context(), screenID)
	if err != nil {
		if errors.Is(err, services.ErrScreenNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Screen not found")
			return nil, false
		}
		respondServerError(c, err, "Failed to load activation code")
		return nil, false
	}
	return code, true
}

// CheckActivation handles GET /api/player/:id/check-activation?code=&pollingToken=
//
//	@Summary		Check activation
//	@Description	Poll whether a code issued to the player was redeemed; the device token is returned while the binding is live
//	@Tags			Player
//	@Produce		json
//	@Param			id	path	int	true	"Screen ID"
//	@Param			code	query	string	true	"Activation code"
//	@Param			pollingToken	query	string	true	"Polling token issued with the code"
//	@Success		200	{object}	object{activated=bool,deviceToken=string}	"Activation status"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Missing code or polling token"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/player/{id}/check-activation [get]
func (h *PairingHandler) CheckActivation(c *gin.Context) {
	screenID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	code := c.Query("code")
	pollingToken := c.Query("pollingToken")
	if code == "" || pollingToken == "" {
		respondError(c, http.StatusBadRequest, "invalid_request", "code and pollingToken are required")
		return
	}

	status, err := h.pairingService.CheckActivation(c.Request.Context(), screenID, code, pollingToken)
	if err != nil {
		respondServerError(c, err, "Failed to check activation")
		return
	}

	c.Header("Cache-Control", "no-store")
	if status.DeviceToken == "" {
		c.JSON(http.StatusOK, gin.H{"activated": status.Activated})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activated":   true,
		"deviceToken": status.DeviceToken,
	})
}

// ClaimDevice handles GET /api/player/devices/:deviceId/claim. Malformed
// device ids count as failed attempts.
//
//	@Summary		Claim device
//	@Description	Pick up the device token of an operator assignment; the token is handed out once
//	@Tags			Player
//	@Produce		json
//	@Param			deviceId	path	string	true	"8 character device ID"
//	@Success		200	{object}	object{claimed=bool,screenId=int,bindingId=int,deviceToken=string}	"Claim status"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid device ID"
//	@Failure		429	{object}	object{error=string,error_description=string,retry_after_minutes=int}	"Too many failed attempts"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/player/devices/{deviceId}/claim [get]
func (h *PairingHandler) ClaimDevice(c *gin.Context) {
	ctx := c.Request.Context()
	ip := c.ClientIP()

	if !h.allow(c, ip, models.BindingFlowDeviceQR) {
		return
	}

	result, err := h.deviceService.ClaimDevice(ctx, c.Param("deviceId"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidDeviceID) {
			h.recordFailure(ctx, ip)
			respondError(c, http.StatusBadRequest, "invalid_device_id", "Device id must be 8 letters or digits")
			return
		}
		respondServerError(c, err, "Failed to claim device")
		return
	}

	c.Header("Cache-Control", "no-store")
	if !result.Claimed {
		c.JSON(http.StatusOK, gin.H{"claimed": false})
		return
	}

	h.clearFailures(ctx, ip)
	c.JSON(http.StatusOK, gin.H{
		"claimed":     true,
		"screenId":    result.ScreenID,
		"bindingId":   result.BindingID,
		"deviceToken": result.DeviceToken,
	})
}
