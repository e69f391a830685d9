// Package main implements the relay hub entry point.
//
// The hub mediates between remote devices and operator clients: session
// registration, directory lookup, message routing, liveness maintenance,
// telemetry buffering, and signaling brokerage for peer-to-peer media
// negotiation. It never carries media itself.
//
// Architecture follows a layered startup:
//   - Foundation: configuration and logging
//   - Core: registry, router, heartbeat supervisor, signaling tracker
//   - Observability: health snapshot
//   - API: WebSocket transport adapter (device/client/health bind points)
//
// Graceful shutdown reverses the startup order: stop accepting new
// connections, then close every session with reason "shutting_down" and
// let each session's write queue drain for up to hub.DrainDeadline.
package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/common"
	"github.com/usnavy13/PiBoat-Server/internal/config"
	"github.com/usnavy13/PiBoat-Server/internal/health"
	"github.com/usnavy13/PiBoat-Server/internal/hub"
	"github.com/usnavy13/PiBoat-Server/internal/hub/metrics"
	"github.com/usnavy13/PiBoat-Server/internal/logging"
	"github.com/usnavy13/PiBoat-Server/internal/transport"
)

// SignalingSweepInterval controls how often the signaling tracker logs
// and drops offer/answer exchanges that neither peer completed.
const SignalingSweepInterval = 30 * time.Second

func main() {
	// Foundation: load and validate configuration.
	cfg, err := config.NewLoader().Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Foundation: initialize structured logging.
	_ = logging.SetupLogging(&logging.LoggingConfig{
		Level:          cfg.LogLevel,
		Format:         "text",
		ConsoleEnabled: true,
	})

	logger := logging.GetLogger()
	logger.Info("Starting relay hub")

	// Core: registry, telemetry buffer, signaling tracker, router, heartbeat.
	counters := metrics.New()
	registry := hub.NewRegistry(cfg.TelemetryBufferSize, counters, logger)
	signaling := hub.NewSignalingTracker(logger)
	router := hub.NewRouter(registry, signaling, counters, logger)
	supervisor := hub.NewSupervisor(cfg.PingInterval, cfg.ConnectionTimeout, logger)

	// Observability: health snapshot over the hub's live state.
	snapshot := hub.NewSnapshot(registry, counters, signaling)
	healthMonitor := health.NewHealthMonitor(snapshot)
	healthHandler := health.NewHTTPHealthServer(healthMonitor, logger)

	// API: transport adapter binds /device/{id}, /client/{id}, /health.
	addr := ":" + strconv.Itoa(cfg.Port)
	server := transport.NewServer(addr, registry, router, supervisor, signaling, counters, healthHandler, logger)

	sweepStop := make(chan struct{})
	go runSignalingSweep(signaling, sweepStop)

	if err := server.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start transport server")
	}
	logger.WithFields(logging.Fields{"addr": addr}).Info("Relay hub accepting connections")

	// Graceful shutdown - wait for termination signal.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Received shutdown signal, stopping relay hub")

	close(sweepStop)

	if err := common.StopWithTimeout(server, transport.ShutdownTimeout); err != nil {
		logger.WithError(err).Error("Transport server did not stop cleanly")
	}

	logger.Info("Relay hub stopped")
}

// runSignalingSweep periodically expires signaling exchanges that went
// idle without either peer completing the handshake.
func runSignalingSweep(tracker *hub.SignalingTracker, stop <-chan struct{}) {
	ticker := time.NewTicker(SignalingSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tracker.Sweep()
		}
	}
}
