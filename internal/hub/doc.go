/*
Package hub implements the relay hub's session manager and message router:
the part of the system that concurrently tracks device and client
sessions, routes frames between them, buffers recent telemetry for
late-joining clients, and keeps connections alive over unreliable links.

The package never performs transport I/O itself — it owns queues and
state machines; internal/transport drives the actual network connections
and calls into Session's read/write flows.

Key Components:
  - Session: one connected endpoint, its queues, and its lifecycle.
  - Registry: id -> session maps per role, with atomic register/evict.
  - TelemetryBuffer: bounded per-device ring with reconnect-safe retention.
  - Router: classifies frames and applies their per-type addressing rules.
  - Supervisor: per-session heartbeat ticking and idle-timeout eviction.
  - SignalingTracker: observability over in-flight offer/answer exchanges.
*/
package hub
