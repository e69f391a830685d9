package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/usnavy13/PiBoat-Server/internal/codec"
	"github.com/usnavy13/PiBoat-Server/internal/hub/metrics"
	"github.com/usnavy13/PiBoat-Server/internal/logging"
	"golang.org/x/time/rate"
)

// Role is one of the two endpoint kinds a Session can represent.
type Role string

const (
	RoleDevice Role = "device"
	RoleClient Role = "client"
)

// Lifecycle is the session state machine:
// registering -> active -> draining -> closed.
type Lifecycle int32

const (
	StateRegistering Lifecycle = iota
	StateActive
	StateDraining
	StateClosed
)

func (l Lifecycle) String() string {
	switch l {
	case StateRegistering:
		return "registering"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultOutboundQueueSize bounds how many frames may be queued for
// delivery to a session before further sends are dropped.
const DefaultOutboundQueueSize = 256

// DrainDeadline bounds how long close() waits for pending writes to flush.
const DrainDeadline = 2 * time.Second

// WriteDeadline bounds a single outbound write.
const WriteDeadline = 2 * time.Second

// Metadata is the optional human-facing descriptor a session may carry.
type Metadata struct {
	Name      string
	Type      string
	FirstSeen time.Time
}

// Session is one connected endpoint: its transport handle, queues,
// heartbeat bookkeeping, and lifecycle state.
type Session struct {
	id   string
	role Role
	conn Conn

	lifecycle atomic.Int32

	outbound chan *codec.Envelope
	closeOnce sync.Once
	closed    chan struct{}

	limiter *rate.Limiter
	metrics *metrics.Counters

	mu                  sync.Mutex
	lastActivity        time.Time
	lastHeartbeatSent   time.Time
	heartbeatOutstanding bool
	metadata            Metadata

	logger *logging.Logger
}

// NewSession constructs a session in the registering state. limiter may be
// nil to disable inbound rate limiting (tests); counters may be nil to
// disable rate-limit accounting (tests).
func NewSession(id string, role Role, conn Conn, limiter *rate.Limiter, counters *metrics.Counters, logger *logging.Logger) *Session {
	s := &Session{
		id:       id,
		role:     role,
		conn:     conn,
		outbound: make(chan *codec.Envelope, DefaultOutboundQueueSize),
		closed:   make(chan struct{}),
		limiter:  limiter,
		metrics:  counters,
		logger:   logger,
		metadata: Metadata{FirstSeen: time.Now()},
	}
	s.lifecycle.Store(int32(StateRegistering))
	s.lastActivity = time.Now()
	return s
}

// ID returns the session's stable identifier.
func (s *Session) ID() string { return s.id }

// Role returns device or client.
func (s *Session) Role() Role { return s.role }

// Lifecycle returns the current state.
func (s *Session) Lifecycle() Lifecycle { return Lifecycle(s.lifecycle.Load()) }

// IdleDuration reports how long it has been since the last inbound frame.
func (s *Session) IdleDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// SetMetadata records the optional descriptor fields (name/type), keeping
// the first-seen timestamp set at construction.
func (s *Session) SetMetadata(name, typ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata.Name = name
	s.metadata.Type = typ
}

// Metadata returns a copy of the session's descriptor.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata
}

// Activate transitions registering -> active, called by the registry once
// the session has been inserted into its maps.
func (s *Session) Activate() {
	s.lifecycle.CompareAndSwap(int32(StateRegistering), int32(StateActive))
}

// Enqueue is the session's public write entry point. It never blocks: a
// saturated queue is a drop, not a stall.
func (s *Session) Enqueue(env *codec.Envelope) error {
	if s.Lifecycle() != StateActive {
		return fmt.Errorf("hub: session %s not active", s.id)
	}
	select {
	case s.outbound <- env:
		return nil
	default:
		return errQueueOverflow
	}
}

// RateAllow reports whether an inbound frame should be processed or shed by
// the per-session limiter. A nil limiter always allows (tests, or rate
// limiting disabled).
func (s *Session) RateAllow() bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

// Touch bumps last-activity and clears the outstanding-heartbeat flag; the
// read flow calls this for every inbound frame, decoded or not, not only
// pongs, since any inbound traffic proves the connection is alive.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
	s.heartbeatOutstanding = false
}

// MarkHeartbeatSent records that the supervisor just enqueued a ping and
// starts the outstanding-flag window.
func (s *Session) MarkHeartbeatSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeatSent = time.Now()
	s.heartbeatOutstanding = true
}

// ClearHeartbeatFlag clears the outstanding flag without touching
// last-activity; used by the router's explicit pong handling so the
// testable property ("pong clears the flag within one router dispatch")
// is attributable to a single code path.
func (s *Session) ClearHeartbeatFlag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeatOutstanding = false
}

// HeartbeatOutstanding reports whether a ping is awaiting its pong.
func (s *Session) HeartbeatOutstanding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeatOutstanding
}

// LastActivity returns the last time any inbound frame was processed.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Done is closed once the session reaches the closed state.
func (s *Session) Done() <-chan struct{} { return s.closed }

// Close idempotently drains pending writes (best-effort, bounded by
// DrainDeadline) and releases the transport. Safe to call from any
// goroutine and any number of times.
func (s *Session) Close(reason CloseReason) {
	s.closeOnce.Do(func() {
		s.lifecycle.Store(int32(StateDraining))
		s.drain()
		s.lifecycle.Store(int32(StateClosed))
		_ = s.conn.Close()
		close(s.closed)
		if s.logger != nil {
			s.logger.WithFields(logging.Fields{
				"session_id": s.id,
				"role":       string(s.role),
				"reason":     string(reason),
			}).Info("session closed")
		}
	})
}

// drain attempts to flush whatever is already queued before closing,
// bounded by DrainDeadline.
func (s *Session) drain() {
	deadline := time.Now().Add(DrainDeadline)
	for {
		select {
		case env, ok := <-s.outbound:
			if !ok {
				return
			}
			if time.Now().After(deadline) {
				return
			}
			data, err := codec.Encode(env)
			if err != nil {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(WriteDeadline))
			_ = s.conn.WriteMessage(data)
		default:
			return
		}
	}
}

// WritePump drains the outbound queue to the transport until the session
// closes or a write fails. Callers run this as the session's write flow
// goroutine.
func (s *Session) WritePump() {
	for {
		select {
		case <-s.closed:
			return
		case env, ok := <-s.outbound:
			if !ok {
				return
			}
			data, err := codec.Encode(env)
			if err != nil {
				if s.logger != nil {
					s.logger.WithError(err).Warn("dropping envelope that failed to encode")
				}
				continue
			}
			if err := s.conn.SetWriteDeadline(time.Now().Add(WriteDeadline)); err != nil {
				s.Close(ReasonTransportError)
				return
			}
			if err := s.conn.WriteMessage(data); err != nil {
				s.Close(ReasonTransportError)
				return
			}
		}
	}
}

// ReadPump pulls frames off the transport and hands decoded envelopes to
// dispatch until the connection fails or the session closes. Decode
// failures are replied to the sender directly instead of being handed to
// dispatch — a malformed frame never drops the session.
func (s *Session) ReadPump(dispatch func(*Session, *codec.Envelope)) {
	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			s.Close(ReasonTransportError)
			return
		}

		env, err := codec.Decode(data)
		if err != nil {
			s.Touch()
			if !s.RateAllow() {
				if s.metrics != nil {
					s.metrics.IncRateLimited()
				}
				continue
			}
			kind := codec.KindMalformed
			if codec.IsUnsupported(err) {
				kind = codec.KindUnsupportedMessage
			}
			_ = s.Enqueue(errorEnvelope(kind, err.Error()))
			continue
		}

		s.Touch()
		if !s.RateAllow() {
			if s.metrics != nil {
				s.metrics.IncRateLimited()
			}
			continue
		}
		dispatch(s, env)
	}
}

var errQueueOverflow = fmt.Errorf("hub: %s", "queue_overflow")

// errorEnvelope builds a type=error reply with the given kind and message.
func errorEnvelope(kind, message string) *codec.Envelope {
	env := codec.New(codec.TypeError, nil)
	env.SetString("kind", kind)
	if message != "" {
		env.SetString("message", message)
	}
	return env
}
