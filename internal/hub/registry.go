package hub

import (
	"sync"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/codec"
	"github.com/usnavy13/PiBoat-Server/internal/hub/metrics"
	"github.com/usnavy13/PiBoat-Server/internal/logging"
)

// DeviceSummary is one row of the device directory snapshot, widened with
// telemetry freshness so a client can tell a stale entry from a live one.
type DeviceSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Connected       bool      `json:"connected"`
	FirstSeen       time.Time `json:"first_seen"`
	LastTelemetryAt time.Time `json:"last_telemetry_at"`
}

// Registry is the process-wide directory of active sessions, id -> session
// per role, plus the telemetry buffer it owns: the buffer outlives any
// single device session so a reconnecting device's recent history stays
// available to clients.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Session
	clients map[string]*Session

	// metadata survives across a device's sessions so list_devices can
	// still report name/type/first_seen while the device is disconnected.
	deviceMeta map[string]Metadata

	telemetry *TelemetryBuffer
	metrics   *metrics.Counters
	logger    *logging.Logger
}

// NewRegistry constructs an empty registry owning a telemetry buffer sized
// per TELEMETRY_BUFFER_SIZE. counters may be nil to disable overflow
// accounting (tests).
func NewRegistry(telemetryBufferSize int, counters *metrics.Counters, logger *logging.Logger) *Registry {
	return &Registry{
		devices:    make(map[string]*Session),
		clients:    make(map[string]*Session),
		deviceMeta: make(map[string]Metadata),
		telemetry:  NewTelemetryBuffer(telemetryBufferSize),
		metrics:    counters,
		logger:     logger,
	}
}

// Telemetry exposes the owned buffer to the router.
func (r *Registry) Telemetry() *TelemetryBuffer { return r.telemetry }

func (r *Registry) table(role Role) map[string]*Session {
	if role == RoleDevice {
		return r.devices
	}
	return r.clients
}

// Register inserts sess as the active session for (role, id), evicting and
// closing any prior occupant with reason "superseded" first. Returns a
// handle whose Deregister method removes sess if it is still the current
// occupant.
func (r *Registry) Register(sess *Session) *Registration {
	role, id := sess.Role(), sess.ID()

	r.mu.Lock()
	table := r.table(role)
	prior, hadPrior := table[id]
	table[id] = sess
	if role == RoleDevice {
		meta := sess.Metadata()
		if meta.FirstSeen.IsZero() {
			meta.FirstSeen = time.Now()
		}
		if existing, ok := r.deviceMeta[id]; ok && meta.Name == "" {
			meta.Name = existing.Name
			meta.Type = existing.Type
			meta.FirstSeen = existing.FirstSeen
		}
		r.deviceMeta[id] = meta
		r.telemetry.CancelRetention(id)
	}
	r.mu.Unlock()

	if hadPrior && prior != sess {
		prior.Close(ReasonSuperseded)
		if role == RoleDevice {
			r.NotifyDeviceStatusChanged(id, "disconnected")
		}
	}

	sess.Activate()
	if role == RoleDevice {
		r.NotifyDeviceStatusChanged(id, "connected")
	}

	return &Registration{registry: r, role: role, id: id, session: sess}
}

// Registration is the handle returned by Register; call Deregister when
// the owning session's read/write flows exit.
type Registration struct {
	registry *Registry
	role     Role
	id       string
	session  *Session
}

// Deregister removes the session from the registry only if it is still
// the current occupant for (role, id) — guarding against a race where a
// newer registration already superseded it.
func (reg *Registration) Deregister() {
	reg.registry.deregister(reg.role, reg.id, reg.session)
}

func (r *Registry) deregister(role Role, id string, sess *Session) {
	r.mu.Lock()
	table := r.table(role)
	current, ok := table[id]
	if !ok || current != sess {
		r.mu.Unlock()
		return
	}
	delete(table, id)
	if role == RoleDevice {
		r.telemetry.ArmRetention(id)
	}
	r.mu.Unlock()

	if role == RoleDevice {
		r.NotifyDeviceStatusChanged(id, "disconnected")
	}
}

// Get returns the active session for (role, id), if any.
func (r *Registry) Get(role Role, id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.table(role)[id]
	return sess, ok
}

// ListDevices returns a snapshot of every known device, connected or not.
func (r *Registry) ListDevices() []DeviceSummary {
	r.mu.RLock()
	ids := make(map[string]struct{}, len(r.deviceMeta))
	for id := range r.deviceMeta {
		ids[id] = struct{}{}
	}
	for id := range r.devices {
		ids[id] = struct{}{}
	}
	out := make([]DeviceSummary, 0, len(ids))
	for id := range ids {
		sess, connected := r.devices[id]
		meta := r.deviceMeta[id]
		summary := DeviceSummary{
			ID:        id,
			Name:      meta.Name,
			Type:      meta.Type,
			Connected: connected,
			FirstSeen: meta.FirstSeen,
		}
		if connected {
			summary.FirstSeen = sess.Metadata().FirstSeen
		}
		if ts, ok := r.telemetry.LastArrival(id); ok {
			summary.LastTelemetryAt = ts
		}
		out = append(out, summary)
	}
	r.mu.RUnlock()
	return out
}

// SessionCounts reports how many device and client sessions are currently
// registered, for the health probe's snapshot.
func (r *Registry) SessionCounts() (devices, clients int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices), len(r.clients)
}

// ClientSessions returns a snapshot of every active client session, used
// for telemetry fan-out and connection_status broadcast.
func (r *Registry) ClientSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.clients))
	for _, sess := range r.clients {
		out = append(out, sess)
	}
	return out
}

// FindClientByCommandPrefix routes a command_status reply by
// prefix-matching command_id against known client ids, preferring the
// longest match. Returns ok=false if nothing matches, in which case the
// router falls back to broadcasting to every client.
func (r *Registry) FindClientByCommandPrefix(commandID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Session
	bestLen := -1
	for id, sess := range r.clients {
		if len(id) > bestLen && len(commandID) >= len(id) && commandID[:len(id)] == id {
			best = sess
			bestLen = len(id)
		}
	}
	return best, best != nil
}

// NotifyDeviceStatusChanged enqueues a connection_status envelope to every
// active client session.
func (r *Registry) NotifyDeviceStatusChanged(deviceID, status string) {
	for _, sess := range r.ClientSessions() {
		env := codec.New(codec.TypeConnectionStatus, nil)
		env.SetString("deviceId", deviceID)
		env.SetString("status", status)
		if err := sess.Enqueue(env); err != nil {
			if r.metrics != nil {
				r.metrics.IncQueueOverflow()
			}
			if r.logger != nil {
				r.logger.WithFields(logging.Fields{
					"client_id": sess.ID(),
					"device_id": deviceID,
				}).Debug("dropped connection_status on saturated client queue")
			}
		}
	}
}

// Shutdown closes every session with reason "shutting_down" and lets their
// write flows drain up to the close deadline.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.devices)+len(r.clients))
	for _, sess := range r.devices {
		sessions = append(sessions, sess)
	}
	for _, sess := range r.clients {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close(ReasonShuttingDown)
		}(sess)
	}
	wg.Wait()
}
