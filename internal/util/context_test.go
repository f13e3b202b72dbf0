package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetIPContext(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		expected string
	}{
		{name: "Valid IP", ip: "192.168.1.1", expected: "192.168.1.1"},
		{name: "Empty IP", ip: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := SetIPContext(context.Background(), tt.ip)
			assert.Equal(t, tt.expected, GetIPFromContext(ctx))
		})
	}
}

func TestIPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromRequest string
	r := gin.New()
	r.Use(IPMiddleware())
	r.GET("/", func(c *gin.Context) {
		fromRequest = GetIPFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", fromRequest)
}
