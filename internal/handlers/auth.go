package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
}

func NewAuthHandler(us *services.UserService, as *services.AuditService) *AuthHandler {
	return &AuthHandler{userService: us, auditService: as}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
//
//	@Summary		Log in
//	@Description	Authenticate with username and password and start a session cookie
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	object{username=string,password=string}	true	"Credentials"
//	@Success		200	{object}	object{user=models.User,csrfToken=string}	"Logged in"
//	@Failure		400	{object}	object{error=string,error_description=string}	"Missing username or password"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Invalid credentials"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
			return
		}
		respondServerError(c, err, "Failed to authenticate")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserID, user.ID)
	// A fresh CSRF token is issued with the login and saved with the session
	if _, err := middleware.EnsureCSRFToken(c); err != nil {
		respondServerError(c, err, "Failed to save session")
		return
	}

	h.respondUser(c, user)
}

// Logout handles POST /api/auth/logout
//
//	@Summary		Log out
//	@Description	Clear the session cookie
//	@Tags			Auth
//	@Security		SessionAuth
//	@Success		204	"Logged out"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondServerError(c, err, "Failed to clear session")
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventLogout,
		Severity:      models.SeverityInfo,
		ActorUserID:   userID,
		ResourceType:  models.ResourceUser,
		ResourceID:    userID,
		Action:        "User logged out",
		Success:       true,
		RequestPath:   c.Request.URL.Path,
		RequestMethod: c.Request.Method,
		UserAgent:     c.Request.UserAgent(),
	})

	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me
//
//	@Summary		Current user
//	@Description	Return the logged-in user and the session CSRF token
//	@Tags			Auth
//	@Produce		json
//	@Security		SessionAuth
//	@Success		200	{object}	object{user=models.User,csrfToken=string}	"Current user"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Login required")
			return
		}
		respondServerError(c, err, "Failed to load user")
		return
	}
	h.respondUser(c, user)
}

// respondUser returns the user along with the session's CSRF token.
func (h *AuthHandler) respondUser(c *gin.Context, user *models.User) {
	csrfToken, err := middleware.EnsureCSRFToken(c)
	if err != nil {
		respondServerError(c, err, "Failed to save session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"csrfToken": csrfToken,
	})
}
