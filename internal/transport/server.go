package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/usnavy13/PiBoat-Server/internal/common"
	"github.com/usnavy13/PiBoat-Server/internal/hub"
	"github.com/usnavy13/PiBoat-Server/internal/hub/metrics"
	"github.com/usnavy13/PiBoat-Server/internal/logging"
	"golang.org/x/time/rate"
)

var _ common.Stoppable = (*Server)(nil)

// InboundRateLimit and InboundBurst bound how many frames per second a
// single session may submit before the defensive shedding in
// Session.RateAllow kicks in. This is a per-session throttle against
// abusive or malfunctioning peers, not an authentication control.
const (
	InboundRateLimit = 50.0
	InboundBurst     = 100
)

// ShutdownTimeout bounds how long Stop waits for the HTTP server to shut
// down. The registry's session drain that follows is not bounded by it;
// each session's drain is bounded by hub.DrainDeadline.
const ShutdownTimeout = 5 * time.Second

// Server is the transport adapter: it owns the HTTP listener, the
// gorilla/mux bind paths for device/client/health, and constructs a
// hub.Session for every accepted connection.
type Server struct {
	addr       string
	httpServer *http.Server
	upgrader   websocket.Upgrader
	registry   *hub.Registry
	router     *hub.Router
	supervisor *hub.Supervisor
	signaling  *hub.SignalingTracker
	metrics    *metrics.Counters
	logger     *logging.Logger

	running  int32
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer builds the transport adapter. healthHandler serves /health;
// everything else is wired from internal/hub.
func NewServer(
	addr string,
	registry *hub.Registry,
	router *hub.Router,
	supervisor *hub.Supervisor,
	signaling *hub.SignalingTracker,
	counters *metrics.Counters,
	healthHandler http.Handler,
	logger *logging.Logger,
) *Server {
	s := &Server{
		addr:       addr,
		registry:   registry,
		router:     router,
		supervisor: supervisor,
		signaling:  signaling,
		metrics:    counters,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mr := mux.NewRouter()
	mr.HandleFunc("/device/{id}", s.handleDevice).Methods(http.MethodGet)
	mr.HandleFunc("/client/{id}", s.handleClient).Methods(http.MethodGet)
	if healthHandler != nil {
		mr.Handle("/health", healthHandler).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mr,
	}

	return s
}

// Start begins listening in a background goroutine, mirroring the
// teacher's atomic-guarded single-start pattern.
func (s *Server) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return fmt.Errorf("transport: server already running")
	}

	if s.logger != nil {
		s.logger.WithFields(logging.Fields{"addr": s.addr}).Info("starting relay hub listener")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("relay hub listener failed")
			}
		}
	}()

	return nil
}

// Stop shuts the HTTP listener down, then closes every registered session
// with reason "shutting_down" and waits for their write queues to drain.
// It implements common.Stoppable so cmd/server can shut it down with
// common.StopWithTimeout; ctx bounds only the HTTP listener shutdown.
func (s *Server) Stop(ctx context.Context) error {
	var stopErr error
	s.stopOnce.Do(func() {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			stopErr = fmt.Errorf("transport: shutdown: %w", err)
		}
		s.wg.Wait()
		s.registry.Shutdown()
	})
	return stopErr
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	s.accept(w, r, hub.RoleDevice)
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	s.accept(w, r, hub.RoleClient)
}

// accept upgrades the connection, registers a session, and runs its read
// flow on this goroutine until the peer disconnects.
func (s *Server) accept(w http.ResponseWriter, r *http.Request, role hub.Role) {
	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "missing session id in path", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithFields(logging.Fields{"id": id, "role": string(role)}).Warn("websocket upgrade failed")
		}
		return
	}

	limiter := rate.NewLimiter(rate.Limit(InboundRateLimit), InboundBurst)
	sess := hub.NewSession(id, role, newWSConn(conn), limiter, s.metrics, s.logger)
	registration := s.registry.Register(sess)

	ctx, cancel := context.WithCancel(context.Background())
	go s.supervisor.Watch(ctx, sess)
	go sess.WritePump()

	if s.logger != nil {
		s.logger.WithFields(logging.Fields{"id": id, "role": string(role)}).Info("session accepted")
	}

	sess.ReadPump(s.router.Route)

	cancel()
	registration.Deregister()
	if role == hub.RoleDevice {
		s.signaling.ForgetDevice(id)
	} else {
		s.signaling.ForgetClient(id)
	}
}
