package hub

import (
	"context"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/codec"
	"github.com/usnavy13/PiBoat-Server/internal/logging"
)

// DefaultPingInterval and DefaultConnectionTimeout are the heartbeat
// defaults applied when a supervisor is constructed with a non-positive
// period.
const (
	DefaultPingInterval      = 20 * time.Second
	DefaultConnectionTimeout = 30 * time.Second
)

// Supervisor runs advisory liveness probing for every active session: it
// pings on an interval and closes a session whose last ping went
// unanswered past the connection timeout.
type Supervisor struct {
	pingInterval      time.Duration
	connectionTimeout time.Duration
	logger            *logging.Logger
}

// NewSupervisor constructs a supervisor with the configured periods.
func NewSupervisor(pingInterval, connectionTimeout time.Duration, logger *logging.Logger) *Supervisor {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	if connectionTimeout <= 0 {
		connectionTimeout = DefaultConnectionTimeout
	}
	return &Supervisor{pingInterval: pingInterval, connectionTimeout: connectionTimeout, logger: logger}
}

// Watch runs the per-session heartbeat loop until ctx is cancelled or the
// session closes. Callers spawn one goroutine per session.
func (s *Supervisor) Watch(ctx context.Context, sess *Session) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case <-ticker.C:
			if sess.Lifecycle() != StateActive {
				return
			}
			if sess.HeartbeatOutstanding() && time.Since(sess.LastActivity()) >= s.connectionTimeout {
				if s.logger != nil {
					s.logger.WithFields(logging.Fields{
						"session_id": sess.ID(),
						"role":       string(sess.Role()),
					}).Warn("heartbeat timeout")
				}
				sess.Close(ReasonHeartbeatTimeout)
				return
			}
			_ = sess.Enqueue(codec.New(codec.TypePing, nil))
			sess.MarkHeartbeatSent()
		}
	}
}
