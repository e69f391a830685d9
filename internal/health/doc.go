// Package health implements the relay hub's read-only status snapshot,
// split so HTTPHealthServer only marshals JSON while HealthMonitor holds
// every number it reports.
//
// Endpoints:
//   - GET /health: basic {status, uptime}.
//   - GET /health?detailed=true: active session counts, frames routed by
//     category, per-device telemetry buffer depth, signaling tracker
//     size, and process gauges (goroutines from the Go runtime, RSS from
//     gopsutil).
package health
