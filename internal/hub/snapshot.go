package hub

import "github.com/usnavy13/PiBoat-Server/internal/hub/metrics"

// Snapshot composes the registry, metrics, and signaling tracker into the
// narrow read-only view internal/health's HubStats interface expects.
// Defined here (not in internal/health) so internal/hub never has to
// import internal/health — Go's structural typing satisfies the interface
// without either package naming the other.
type Snapshot struct {
	registry  *Registry
	counters  *metrics.Counters
	signaling *SignalingTracker
}

// NewSnapshot wires a health-facing view over the hub's live components.
func NewSnapshot(registry *Registry, counters *metrics.Counters, signaling *SignalingTracker) *Snapshot {
	return &Snapshot{registry: registry, counters: counters, signaling: signaling}
}

// SessionCounts reports active device/client session counts.
func (s *Snapshot) SessionCounts() (devices, clients int) {
	return s.registry.SessionCounts()
}

// FramesRouted reports cumulative frames routed per category.
func (s *Snapshot) FramesRouted() map[string]int64 {
	return s.counters.Snapshot()
}

// TelemetryDepths reports the current buffered entry count per device.
func (s *Snapshot) TelemetryDepths() map[string]int {
	return s.registry.Telemetry().Depths()
}

// SignalingCount reports how many offer/answer exchanges are tracked.
func (s *Snapshot) SignalingCount() int {
	return s.signaling.Count()
}
