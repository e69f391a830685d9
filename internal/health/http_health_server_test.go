package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	devices, clients int
	framesRouted     map[string]int64
	depths           map[string]int
	signaling        int
}

func (f *fakeStats) SessionCounts() (int, int)        { return f.devices, f.clients }
func (f *fakeStats) FramesRouted() map[string]int64   { return f.framesRouted }
func (f *fakeStats) TelemetryDepths() map[string]int  { return f.depths }
func (f *fakeStats) SignalingCount() int              { return f.signaling }

func TestBasicHealthEndpointReturnsMinimalShape(t *testing.T) {
	monitor := NewHealthMonitor(&fakeStats{})
	handler := NewHTTPHealthServer(monitor, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status"`)
	assert.NotContains(t, w.Body.String(), "active_devices")
}

func TestDetailedHealthEndpointReportsHubStats(t *testing.T) {
	stats := &fakeStats{
		devices:      2,
		clients:      3,
		framesRouted: map[string]int64{"telemetry": 10},
		depths:       map[string]int{"alpha": 5},
		signaling:    1,
	}
	monitor := NewHealthMonitor(stats)
	handler := NewHTTPHealthServer(monitor, nil)

	req := httptest.NewRequest(http.MethodGet, "/health?detailed=true", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"active_devices":2`)
	assert.Contains(t, body, `"active_clients":3`)
	assert.Contains(t, body, `"telemetry":10`)
}

func TestHealthMonitorGetHealthNeverErrors(t *testing.T) {
	monitor := NewHealthMonitor(&fakeStats{})
	resp, err := monitor.GetHealth(nil)
	require.NoError(t, err)
	assert.Equal(t, HealthStatusHealthy, resp.Status)
}
