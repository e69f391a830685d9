package hub

import (
	"sync"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/logging"
)

// SignalingIdleTimeout is how long a tracked offer/answer exchange may go
// without matching traffic before it is considered orphaned.
const SignalingIdleTimeout = 60 * time.Second

// signalingKey identifies one offer/answer exchange.
type signalingKey struct {
	clientID string
	deviceID string
	token    string
}

type signalingEntry struct {
	createdAt time.Time
	touchedAt time.Time
}

// SignalingTracker is observability over in-flight media-negotiation
// exchanges. It never gates routing: the router applies its addressing
// rules whether or not a tracked entry exists. Its purpose is to detect
// and log exchanges that never complete, and to expire its own
// bookkeeping so it never grows unbounded.
type SignalingTracker struct {
	mu      sync.Mutex
	entries map[signalingKey]*signalingEntry
	logger  *logging.Logger
}

// NewSignalingTracker returns an empty tracker.
func NewSignalingTracker(logger *logging.Logger) *SignalingTracker {
	return &SignalingTracker{
		entries: make(map[signalingKey]*signalingEntry),
		logger:  logger,
	}
}

// Track records (or refreshes) an exchange opened by an offer.
func (t *SignalingTracker) Track(clientID, deviceID, token string) {
	key := signalingKey{clientID, deviceID, token}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if e, ok := t.entries[key]; ok {
		e.touchedAt = now
		return
	}
	t.entries[key] = &signalingEntry{createdAt: now, touchedAt: now}
}

// Touch refreshes an exchange on subsequent ice_candidate/answer traffic.
func (t *SignalingTracker) Touch(clientID, deviceID, token string) {
	key := signalingKey{clientID, deviceID, token}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.touchedAt = time.Now()
	}
}

// ForgetClient drops every exchange involving a client, called when that
// client's session closes.
func (t *SignalingTracker) ForgetClient(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.entries {
		if key.clientID == clientID {
			delete(t.entries, key)
		}
	}
}

// ForgetDevice drops every exchange involving a device, called when that
// device's session closes.
func (t *SignalingTracker) ForgetDevice(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.entries {
		if key.deviceID == deviceID {
			delete(t.entries, key)
		}
	}
}

// Sweep removes exchanges idle past SignalingIdleTimeout and logs each one
// as orphaned. Intended to run on a periodic ticker from cmd/server.
func (t *SignalingTracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	for key, e := range t.entries {
		if now.Sub(e.touchedAt) >= SignalingIdleTimeout {
			delete(t.entries, key)
			if t.logger != nil {
				t.logger.WithFields(logging.Fields{
					"client_id": key.clientID,
					"device_id": key.deviceID,
				}).Warn("signaling exchange expired without completion")
			}
		}
	}
}

// Count reports how many exchanges are currently tracked (test/health use).
func (t *SignalingTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
