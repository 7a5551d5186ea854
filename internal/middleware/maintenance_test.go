package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mindfulpath/practicesite/internal/siteconfig"
	"github.com/mindfulpath/practicesite/pkg/response"
)

type staticMaintenance struct {
	state siteconfig.Maintenance
	err   error
}

func (s staticMaintenance) Maintenance(context.Context) (siteconfig.Maintenance, error) {
	return s.state, s.err
}

func serveGate(t *testing.T, source MaintenanceSource) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(MaintenanceGate(source))
	r.GET("/api/testimonials", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/testimonials", nil))
	return w
}

func TestMaintenanceGateBlocksWhenEnabled(t *testing.T) {
	w := serveGate(t, staticMaintenance{state: siteconfig.Maintenance{Enabled: true, Message: "Back at noon"}})

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "120", w.Header().Get("Retry-After"))

	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "MAINTENANCE", payload.Error.Code)
	require.Equal(t, "Back at noon", payload.Error.Message)
}

func TestMaintenanceGatePassesThrough(t *testing.T) {
	require.Equal(t, http.StatusOK, serveGate(t, staticMaintenance{}).Code)
	require.Equal(t, http.StatusOK, serveGate(t, staticMaintenance{err: errors.New("db down")}).Code)
	require.Equal(t, http.StatusOK, serveGate(t, nil).Code)
}
