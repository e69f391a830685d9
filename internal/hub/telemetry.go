package hub

import (
	"sync"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/codec"
)

// RetentionWindow is how long a device's ring survives after its session
// closes with no successor before it is forgotten.
const RetentionWindow = 5 * time.Minute

// telemetryEntry pairs a buffered envelope with its arrival time.
type telemetryEntry struct {
	envelope  *codec.Envelope
	arrivedAt time.Time
}

// deviceRing is one device's bounded telemetry history plus its pending
// retention timer, if any.
type deviceRing struct {
	entries []telemetryEntry
	timer   *time.Timer
}

// TelemetryBuffer is the per-device bounded ring of recent telemetry
// frames, with a reconnect-safe retention window that keeps a ring alive
// briefly after its device disconnects.
type TelemetryBuffer struct {
	mu       sync.Mutex
	capacity int
	rings    map[string]*deviceRing
}

// NewTelemetryBuffer creates a buffer with the configured per-device ring
// capacity (TELEMETRY_BUFFER_SIZE, default 100).
func NewTelemetryBuffer(capacity int) *TelemetryBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &TelemetryBuffer{
		capacity: capacity,
		rings:    make(map[string]*deviceRing),
	}
}

// Append records a telemetry envelope for a device, evicting the oldest
// entry once the ring is at capacity.
func (b *TelemetryBuffer) Append(deviceID string, env *codec.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ring, ok := b.rings[deviceID]
	if !ok {
		ring = &deviceRing{}
		b.rings[deviceID] = ring
	}
	ring.entries = append(ring.entries, telemetryEntry{envelope: env, arrivedAt: time.Now()})
	if len(ring.entries) > b.capacity {
		ring.entries = ring.entries[len(ring.entries)-b.capacity:]
	}
}

// Replay enqueues the buffered history for a device, in arrival order,
// into sink's outbound queue. Used on connect_device/get_telemetry.
func (b *TelemetryBuffer) Replay(deviceID string, sink *Session) {
	b.mu.Lock()
	ring, ok := b.rings[deviceID]
	var snapshot []telemetryEntry
	if ok {
		snapshot = make([]telemetryEntry, len(ring.entries))
		copy(snapshot, ring.entries)
	}
	b.mu.Unlock()

	for _, entry := range snapshot {
		_ = sink.Enqueue(entry.envelope.Clone())
	}
}

// Depth reports the current number of buffered entries for a device.
func (b *TelemetryBuffer) Depth(deviceID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring, ok := b.rings[deviceID]
	if !ok {
		return 0
	}
	return len(ring.entries)
}

// LastArrival reports the arrival time of the most recent buffered entry,
// used by the registry to enrich list_devices with last_telemetry_at.
func (b *TelemetryBuffer) LastArrival(deviceID string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring, ok := b.rings[deviceID]
	if !ok || len(ring.entries) == 0 {
		return time.Time{}, false
	}
	return ring.entries[len(ring.entries)-1].arrivedAt, true
}

// Depths returns the current buffered-entry count for every device with a
// ring, for the health probe's per-device buffer depth figure.
func (b *TelemetryBuffer) Depths() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.rings))
	for id, ring := range b.rings {
		out[id] = len(ring.entries)
	}
	return out
}

// ArmRetention starts the 5-minute forget timer for a device whose session
// just closed with no successor. A reconnect before the timer fires must
// call CancelRetention.
func (b *TelemetryBuffer) ArmRetention(deviceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring, ok := b.rings[deviceID]
	if !ok {
		return
	}
	if ring.timer != nil {
		ring.timer.Stop()
	}
	ring.timer = time.AfterFunc(RetentionWindow, func() {
		b.Forget(deviceID)
	})
}

// CancelRetention disarms a pending forget timer, called when a device
// reconnects before its retention window elapses.
func (b *TelemetryBuffer) CancelRetention(deviceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring, ok := b.rings[deviceID]
	if !ok || ring.timer == nil {
		return
	}
	ring.timer.Stop()
	ring.timer = nil
}

// Forget drops a device's ring entirely.
func (b *TelemetryBuffer) Forget(deviceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ring, ok := b.rings[deviceID]; ok && ring.timer != nil {
		ring.timer.Stop()
	}
	delete(b.rings, deviceID)
}
