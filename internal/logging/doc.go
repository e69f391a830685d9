// Package logging provides structured logging with correlation ID support for the relay hub.
//
// This package implements a centralized logging system using Logrus with structured
// logging, correlation ID tracking, component identification, and configurable output
// destinations (console, file, both, or disabled).
//
// Architecture Compliance:
//   - Structured Logging: JSON and text formats with consistent field structure
//   - Correlation ID Support: Request tracing across service boundaries
//   - Component Identification: Logger instances tagged with component names
//   - Centralized Configuration: Global logging configuration with factory pattern
//   - Thread Safety: All logger operations are thread-safe
//
// Key Features:
//   - Structured logging with JSON and text formatters
//   - Correlation ID tracking for request tracing
//   - Component-based logger instances
//   - Configurable log levels (debug, info, warn, error, fatal)
//   - File rotation with configurable size limits and backup retention
//   - Console and file output with independent enable/disable
//   - Global logger factory with consistent configuration
//
// Usage Patterns:
//   - Get logger factory: GetLoggerFactory()
//   - Configure globally: ConfigureFactory(config)
//   - Create component logger: factory.CreateLogger("component-name")
//   - Get global logger: GetLogger()
//   - Add correlation ID: WithCorrelationID(ctx)
//
// Logger Creation:
//   - Component loggers: factory.CreateLogger("router")
//   - Global logger: GetLogger() for general use
//   - Context-aware: WithCorrelationID(ctx) for request tracing
//
// Field Conventions:
//   - "component": Component name (e.g., "router", "transport", "heartbeat")
//   - "correlation_id": Request correlation ID for tracing
//   - "session_id": Session identifier for device/client connections
//   - "role": Session role ("device" or "client")
//   - "frame_type": Envelope type being processed
//   - "action": Specific action being performed
package logging
