package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Status(t *testing.T) {
	h := NewHealthChecker()
	assert.Equal(t, "healthy", h.Status().Status)

	h.RecordFailure(errors.New("catalog unreachable"))
	assert.Equal(t, "degraded", h.Status().Status)
	assert.Equal(t, "catalog unreachable", h.Status().LastError)

	h.RecordSuccess()
	assert.Equal(t, "healthy", h.Status().Status)
	assert.False(t, h.Status().LastSuccess.IsZero())

	h.SetOffline(true)
	h.RecordFallback()
	h.RecordFallback()
	status := h.Status()
	assert.Equal(t, "offline", status.Status)
	assert.Equal(t, 2, status.Fallbacks)
}

func TestHealthChecker_ServeHTTP(t *testing.T) {
	h := NewHealthChecker()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetOffline(true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Offline)
	h.SetOffline(false)
}

func TestMetricsHandler(t *testing.T) {
	RecordSync("definition", "not_modified", 0.01)
	RecordFallback("RSI")

	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_modified")
}
