package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/services"

	"github.com/gin-gonic/gin"
)

// ScreenHandler serves the owner dashboard API.
type ScreenHandler struct {
	screenService  *services.ScreenService
	pairingService *services.PairingService
	deviceService  *services.DeviceBindingService
}

func NewScreenHandler(
	ss *services.ScreenService,
	ps *services.PairingService,
	ds *services.DeviceBindingService,
) *ScreenHandler {
	return &ScreenHandler{screenService: ss, pairingService: ps, deviceService: ds}
}

// ListScreens handles GET /api/screens
//
//	@Summary		List screens
//	@Description	List the logged-in owner's screens
//	@Tags			Screens
//	@Produce		json
//	@Security		SessionAuth
//	@Success		200	{array}	models.Screen	"Screens"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens [get]
func (h *ScreenHandler) ListScreens(c *gin.Context) {
	screens, err := h.screenService.ListScreens(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondServerError(c, err, "Failed to list screens")
		return
	}
	c.JSON(http.StatusOK, screens)
}

type createScreenRequest struct {
	Name                  string     `json:"name"                    binding:"required"`
	Location              string     `json:"location"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
}

// CreateScreen handles POST /api/screens
//
//	@Summary		Create screen
//	@Description	Register a new screen for the logged-in owner
//	@Tags			Screens
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			request	body	object{name=string,location=string,subscription_expires_at=string}	true	"Screen"
//	@Success		201	{object}	models.Screen	"Screen created"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid screen"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens [post]
func (h *ScreenHandler) CreateScreen(c *gin.Context) {
	var req createScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	screen, err := h.screenService.CreateScreen(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		services.CreateScreenInput{
			Name:                  req.Name,
			Location:              req.Location,
			SubscriptionExpiresAt: req.SubscriptionExpiresAt,
		},
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidScreenName) {
			respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		respondServerError(c, err, "Failed to create screen")
		return
	}
	c.JSON(http.StatusCreated, screen)
}

// IssueActivationCode handles POST /api/screens/:id/activation-codes
//
//	@Summary		Issue activation code
//	@Description	Issue a fresh activation code for an owned screen, superseding earlier unused codes
//	@Tags			Screens
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id	path	int	true	"Screen ID"
//	@Success		201	{object}	object{code=string,expiresAt=string,pollingToken=string,qrPayload=string}	"Code issued"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid screen ID"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Screen not found"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens/{id}/activation-codes [post]
func (h *ScreenHandler) IssueActivationCode(c *gin.Context) {
	screenID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ownerID := c.GetString(middleware.ContextUserID)

	if !h.requireOwnedScreen(c, screenID, ownerID) {
		return
	}

	code, err := h.pairingService.IssueCode(c.Request.Context(), screenID, ownerID)
	if err != nil {
		respondServerError(c, err, "Failed to issue activation code")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":         code.Code,
		"expiresAt":    code.ExpiresAt,
		"pollingToken": code.PollingToken,
		"qrPayload":    code.QRPayload(),
	})
}

// ListDevices handles GET /api/screens/:id/devices
//
//	@Summary		List devices
//	@Description	List the live device bindings of an owned screen, newest first
//	@Tags			Screens
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id	path	int	true	"Screen ID"
//	@Success		200	{array}	models.DeviceBinding	"Live bindings"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid screen ID"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Screen not found"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens/{id}/devices [get]
func (h *ScreenHandler) ListDevices(c *gin.Context) {
	screenID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bindings, err := h.pairingService.ListBindings(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		screenID,
	)
	if err != nil {
		if errors.Is(err, services.ErrScreenNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Screen not found")
			return
		}
		respondServerError(c, err, "Failed to list devices")
		return
	}
	c.JSON(http.StatusOK, bindings)
}

// RevokeBinding handles DELETE /api/device-bindings/:id
//
//	@Summary		Revoke device binding
//	@Description	Revoke a device binding on an owned screen
//	@Tags			Screens
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id	path	int	true	"Binding ID"
//	@Success		204	"Revoked"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid binding ID"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Binding not found"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/device-bindings/{id} [delete]
func (h *ScreenHandler) RevokeBinding(c *gin.Context) {
	bindingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.pairingService.RevokeBinding(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		bindingID,
	)
	if err != nil {
		if errors.Is(err, services.ErrBindingNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Device binding not found")
			return
		}
		respondServerError(c, err, "Failed to revoke device binding")
		return
	}
	c.Status(http.StatusNoContent)
}

type bindDeviceRequest struct {
	DeviceID   string `json:"deviceId"   binding:"required"`
	DeviceInfo string `json:"deviceInfo"`
}

// BindDevice handles POST /api/screens/:id/bind-device
//
//	@Summary		Bind device
//	@Description	Assign a player device ID to an owned screen; the player picks up its token with the claim endpoint
//	@Tags			Screens
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id	path	int	true	"Screen ID"
//	@Param			request	body	object{deviceId=string,deviceInfo=string}	true	"Device"
//	@Success		201	{object}	object{deviceId=string,screenId=int,expiresAt=string}	"Device assigned"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Invalid request or device ID"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		404	{object}	object{error=string,error_description=string}	"Screen not found"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/screens/{id}/bind-device [post]
func (h *ScreenHandler) BindDevice(c *gin.Context) {
	screenID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req bindDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "deviceId is required")
		return
	}

	pending, err := h.deviceService.BindDevice(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		screenID,
		req.DeviceID,
		req.DeviceInfo,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDeviceID):
			respondError(c, http.StatusBadRequest, "invalid_device_id", "Device id must be 8 letters or digits")
		case errors.Is(err, services.ErrScreenNotFound):
			respondError(c, http.StatusNotFound, "not_found", "Screen not found")
		default:
			respondServerError(c, err, "Failed to bind device")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"deviceId":  pending.DeviceID,
		"screenId":  pending.ScreenID,
		"expiresAt": pending.ExpiresAt,
	})
}

func (h *ScreenHandler) requireOwnedScreen(c *gin.Context, screenID uint, ownerID string) bool {
	if _, err := h.screenService.GetOwnedScreen(c.Request.Context(), screenID, ownerID); err != nil {
		if errors.Is(err, services.ErrScreenNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Screen not found")
			return false
		}
		respondServerError(c, err, "Failed to load screen")
		return false
	}
	return true
}
