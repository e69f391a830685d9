/*
Package health exposes the hub's read-only status snapshot: uptime,
active session counts per role, frames routed by category, and current
telemetry buffer depth per device. HTTPHealthServer only marshals
responses: every number it reports comes from the HealthAPI
implementation below.
*/
package health

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// HealthStatus is the coarse health verdict surfaced by the basic endpoint.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the minimal shape returned by the basic /health GET.
type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    string       `json:"uptime"`
}

// ProcessGauges carries the process metrics surfaced on the detailed
// endpoint only: goroutines from the Go runtime, RSS from gopsutil.
type ProcessGauges struct {
	Goroutines int    `json:"goroutines"`
	RSSBytes   uint64 `json:"rss_bytes"`
}

// DetailedHealthResponse is the comprehensive status snapshot.
type DetailedHealthResponse struct {
	Status          HealthStatus     `json:"status"`
	Timestamp       time.Time        `json:"timestamp"`
	Uptime          string           `json:"uptime"`
	ActiveDevices   int              `json:"active_devices"`
	ActiveClients   int              `json:"active_clients"`
	FramesRouted    map[string]int64 `json:"frames_routed"`
	BufferDepths    map[string]int   `json:"buffer_depths"`
	SignalingActive int              `json:"signaling_active"`
	Process         ProcessGauges    `json:"process"`
}

// HubStats is the read-only view into internal/hub the health monitor
// depends on, kept narrow so this package never needs hub's write paths.
type HubStats interface {
	SessionCounts() (devices, clients int)
	FramesRouted() map[string]int64
	TelemetryDepths() map[string]int
	SignalingCount() int
}

// HealthAPI is the interface HTTPHealthServer delegates every operation
// to.
type HealthAPI interface {
	GetHealth(ctx context.Context) (*HealthResponse, error)
	GetDetailedHealth(ctx context.Context) (*DetailedHealthResponse, error)
}

// HealthMonitor implements HealthAPI over a HubStats snapshot.
type HealthMonitor struct {
	startTime time.Time
	stats     HubStats
}

// NewHealthMonitor constructs a monitor reporting against the given hub
// snapshot source.
func NewHealthMonitor(stats HubStats) *HealthMonitor {
	return &HealthMonitor{startTime: time.Now(), stats: stats}
}

// GetHealth returns the minimal status/uptime shape.
func (hm *HealthMonitor) GetHealth(ctx context.Context) (*HealthResponse, error) {
	return &HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(hm.startTime).String(),
	}, nil
}

// GetDetailedHealth returns the full snapshot, including gopsutil process
// gauges. A failure to read process gauges degrades the gauges but does
// not fail the request — health reporting should never itself become a
// cause of unavailability.
func (hm *HealthMonitor) GetDetailedHealth(ctx context.Context) (*DetailedHealthResponse, error) {
	devices, clients := hm.stats.SessionCounts()

	response := &DetailedHealthResponse{
		Status:          HealthStatusHealthy,
		Timestamp:       time.Now(),
		Uptime:          time.Since(hm.startTime).String(),
		ActiveDevices:   devices,
		ActiveClients:   clients,
		FramesRouted:    hm.stats.FramesRouted(),
		BufferDepths:    hm.stats.TelemetryDepths(),
		SignalingActive: hm.stats.SignalingCount(),
		Process: ProcessGauges{
			Goroutines: runtime.NumGoroutine(),
		},
	}

	if rss, err := readRSS(); err == nil {
		response.Process.RSSBytes = rss
	}

	return response, nil
}

func readRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(pid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
