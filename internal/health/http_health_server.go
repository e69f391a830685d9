package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/logging"
)

// HTTPHealthServer serves the /health bind path. It is a pure
// http.Handler, not its own listener: internal/transport mounts it into
// the same gorilla/mux router as the device/client bind points, so the
// hub has exactly one HTTP listener.
type HTTPHealthServer struct {
	healthAPI HealthAPI
	logger    *logging.Logger
}

// NewHTTPHealthServer wires the handler against a HealthAPI delegate.
// This type contains no business logic, only request/response plumbing.
func NewHTTPHealthServer(healthAPI HealthAPI, logger *logging.Logger) *HTTPHealthServer {
	return &HTTPHealthServer{healthAPI: healthAPI, logger: logger}
}

// ServeHTTP implements http.Handler. A `detailed=true` query parameter
// selects the comprehensive snapshot; otherwise the minimal
// {status, uptime} shape is returned.
func (hs *HTTPHealthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	setResponseHeaders(w)

	if r.URL.Query().Get("detailed") == "true" {
		response, err := hs.healthAPI.GetDetailedHealth(r.Context())
		if err != nil {
			hs.writeError(w, err)
			return
		}
		hs.writeJSON(w, http.StatusOK, response)
		hs.logRequest(r, "detailed_health", time.Since(start))
		return
	}

	response, err := hs.healthAPI.GetHealth(r.Context())
	if err != nil {
		hs.writeError(w, err)
		return
	}
	hs.writeJSON(w, http.StatusOK, response)
	hs.logRequest(r, "basic_health", time.Since(start))
}

func setResponseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}

func (hs *HTTPHealthServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil && hs.logger != nil {
		hs.logger.WithError(err).Error("failed to encode health response")
	}
}

func (hs *HTTPHealthServer) writeError(w http.ResponseWriter, err error) {
	if hs.logger != nil {
		hs.logger.WithError(err).Error("health check failed")
	}
	setResponseHeaders(w)
	hs.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (hs *HTTPHealthServer) logRequest(r *http.Request, endpoint string, duration time.Duration) {
	if hs.logger == nil {
		return
	}
	hs.logger.WithFields(logging.Fields{
		"method":      r.Method,
		"endpoint":    endpoint,
		"remote_addr": r.RemoteAddr,
		"duration":    duration.String(),
	}).Debug("health request processed")
}
