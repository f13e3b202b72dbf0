package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/ratelimit"
	"github.com/go-authgate/screenpair/internal/services"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testAdminPassword = "admin-password"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	audit  *services.AuditService
	clock  *fakeClock
	cookie *http.Cookie
	csrf   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		DefaultAdminPassword:        testAdminPassword,
		ActivationCodeExpiration:    time.Hour,
		ActivationCodeRefreshBefore: 5 * time.Minute,
		PendingBindingExpiration:    time.Hour,
		PollingInterval:             5,
		OnlineWindow:                2 * time.Minute,
	}
	s, err := store.New(context.Background(), config.DatabaseDriverSQLite, ":memory:", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{now: time.Now().UTC()}
	recorder := metrics.NewNoopMetrics()
	limitStore := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = limitStore.Close() })
	limiter := ratelimit.New(limitStore, ratelimit.Config{
		MaxAttempts:   5,
		BlockDuration: 15 * time.Minute,
	}, ratelimit.WithClock(clock.Now))

	auditService := services.NewAuditService(s, true, 100)
	t.Cleanup(func() { _ = auditService.Shutdown(context.Background()) })

	userService := services.NewUserService(s, auditService, recorder)
	screenService := services.NewScreenService(s, cfg, auditService)
	pairingService := services.NewPairingService(s, cfg, auditService, recorder)
	deviceService := services.NewDeviceBindingService(s, cfg, auditService, recorder)

	authHandler := NewAuthHandler(userService, auditService)
	screenHandler := NewScreenHandler(screenService, pairingService, deviceService)
	pairingHandler := NewPairingHandler(pairingService, deviceService, auditService, limiter, recorder, cfg)
	auditHandler := NewAuditHandler(auditService)

	r := gin.New()
	r.Use(sessions.Sessions("screenpair_session", cookie.NewStore([]byte("test-secret"))))

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/screens/activate", pairingHandler.Activate)
	api.POST("/player/activate", pairingHandler.PlayerActivate)
	api.POST("/player/verify", pairingHandler.Verify)
	api.GET("/player/:id/activation-code", pairingHandler.CurrentCode)
	api.GET("/player/:id/activation-code/qr.png", pairingHandler.CurrentCodeQR)
	api.GET("/player/:id/check-activation", pairingHandler.CheckActivation)
	api.GET("/player/devices/:deviceId/claim", pairingHandler.ClaimDevice)
	api.POST("/screens/:id/heartbeat", middleware.RequireDeviceToken(pairingService), pairingHandler.Heartbeat)

	owner := api.Group("", middleware.RequireAuth(), middleware.CSRFMiddleware())
	owner.POST("/auth/logout", authHandler.Logout)
	owner.GET("/auth/me", authHandler.Me)
	owner.GET("/screens", screenHandler.ListScreens)
	owner.POST("/screens", screenHandler.CreateScreen)
	owner.POST("/screens/:id/activation-codes", screenHandler.IssueActivationCode)
	owner.GET("/screens/:id/devices", screenHandler.ListDevices)
	owner.POST("/screens/:id/bind-device", screenHandler.BindDevice)
	owner.DELETE("/device-bindings/:id", screenHandler.RevokeBinding)

	admin := owner.Group("/admin", middleware.RequireAdmin(userService))
	admin.GET("/audit-logs", auditHandler.ListAuditLogs)

	return &testServer{router: r, store: s, audit: auditService, clock: clock}
}

// do sends a request, attaching the session cookie and CSRF header when logged in.
func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
		req.Header.Set(middleware.CSRFHeader, ts.csrf)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "admin",
		"password": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	decode(t, w, &body)
	require.NotEmpty(t, body.CSRFToken)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	ts.cookie = cookies[len(cookies)-1]
	ts.csrf = body.CSRFToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Error             string `json:"error"`
	ErrorDescription  string `json:"error_description"`
	RetryAfterMinutes int    `json:"retry_after_minutes"`
}

// createScreen creates a screen for the logged-in owner and returns its id.
func (ts *testServer) createScreen(t *testing.T, subscribed bool) uint {
	t.Helper()
	body := gin.H{"name": "Lobby"}
	if subscribed {
		body["subscription_expires_at"] = time.Now().UTC().Add(24 * time.Hour)
	}
	w := ts.do(t, http.MethodPost, "/api/screens", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var screen struct {
		ID uint `json:"id"`
	}
	decode(t, w, &screen)
	return screen.ID
}

type issuedCode struct {
	Code         string    `json:"code"`
	ExpiresAt    time.Time `json:"expiresAt"`
	PollingToken string    `json:"pollingToken"`
	QRPayload    string    `json:"qrPayload"`
	PollInterval int       `json:"pollInterval"`
}

func (ts *testServer) issueCode(t *testing.T, screenID uint) issuedCode {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/screens/"+uintStr(screenID)+"/activation-codes", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var code issuedCode
	decode(t, w, &code)
	return code
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
