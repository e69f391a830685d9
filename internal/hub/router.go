package hub

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/usnavy13/PiBoat-Server/internal/codec"
	"github.com/usnavy13/PiBoat-Server/internal/hub/metrics"
	"github.com/usnavy13/PiBoat-Server/internal/logging"
)

// Router is the central classifier: given a decoded frame from a source
// session, it applies the addressing rules for that frame's type and
// enqueues to the target(s) without ever blocking on a full target queue.
type Router struct {
	registry  *Registry
	signaling *SignalingTracker
	metrics   *metrics.Counters
	logger    *logging.Logger
}

// NewRouter wires a router against the registry and signaling tracker it
// dispatches through.
func NewRouter(registry *Registry, signaling *SignalingTracker, counters *metrics.Counters, logger *logging.Logger) *Router {
	return &Router{registry: registry, signaling: signaling, metrics: counters, logger: logger}
}

// Route classifies env, sent by S, and applies the addressing rules for
// its type.
func (r *Router) Route(S *Session, env *codec.Envelope) {
	switch env.Type {
	case codec.TypePing:
		r.metrics.Inc(metrics.CategoryHeartbeat)
		r.routePing(S)
	case codec.TypePong:
		r.metrics.Inc(metrics.CategoryHeartbeat)
		S.ClearHeartbeatFlag()
	case codec.TypeDevicesList:
		if S.Role() != RoleClient {
			r.routeUnsupported(S, env)
			return
		}
		r.metrics.Inc(metrics.CategoryDirectory)
		r.routeDevicesList(S)
	case codec.TypeConnectDevice:
		if S.Role() != RoleClient {
			r.routeUnsupported(S, env)
			return
		}
		r.metrics.Inc(metrics.CategoryDirectory)
		r.routeConnectDevice(S, env, true)
	case codec.TypeGetTelemetry:
		if S.Role() != RoleClient {
			r.routeUnsupported(S, env)
			return
		}
		r.metrics.Inc(metrics.CategoryDirectory)
		r.routeConnectDevice(S, env, false)
	case codec.TypeTelemetry:
		if S.Role() != RoleDevice {
			r.routeUnsupported(S, env)
			return
		}
		r.metrics.Inc(metrics.CategoryTelemetry)
		r.routeTelemetry(S, env)
	case codec.TypeCommand:
		if S.Role() != RoleClient {
			r.routeUnsupported(S, env)
			return
		}
		r.metrics.Inc(metrics.CategoryCommand)
		r.routeCommand(S, env)
	case codec.TypeCommandStatus:
		if S.Role() != RoleDevice {
			r.routeUnsupported(S, env)
			return
		}
		r.metrics.Inc(metrics.CategoryCommand)
		r.routeCommandStatus(S, env)
	case codec.TypeWebRTC:
		r.metrics.Inc(metrics.CategorySignaling)
		r.routeSignaling(S, env)
	default:
		r.routeUnsupported(S, env)
	}
}

func (r *Router) routePing(S *Session) {
	_ = S.Enqueue(codec.New(codec.TypePong, nil))
}

func (r *Router) routeDevicesList(S *Session) {
	devices := r.registry.ListDevices()
	env := codec.New(codec.TypeDevicesList, nil)
	env.SetJSON("devices", devices)
	_ = S.Enqueue(env)
}

func (r *Router) routeConnectDevice(S *Session, env *codec.Envelope, announce bool) {
	deviceID := env.GetString("deviceId")
	if deviceID == "" {
		_ = S.Enqueue(errorEnvelope(codec.KindMalformed, fmt.Sprintf("%s requires deviceId", env.Type)))
		return
	}

	if announce {
		_, connected := r.registry.Get(RoleDevice, deviceID)
		status := "disconnected"
		if connected {
			status = "connected"
		}
		reply := codec.New(codec.TypeDeviceConnected, nil)
		reply.SetString("deviceId", deviceID)
		reply.SetString("status", status)
		_ = S.Enqueue(reply)
	}

	r.registry.Telemetry().Replay(deviceID, S)
}

func (r *Router) routeTelemetry(S *Session, env *codec.Envelope) {
	r.registry.Telemetry().Append(S.ID(), env)
	for _, client := range r.registry.ClientSessions() {
		if err := client.Enqueue(env.Clone()); err != nil {
			r.metrics.IncQueueOverflow()
			if r.logger != nil {
				r.logger.WithFields(logging.Fields{
					"device_id": S.ID(),
					"client_id": client.ID(),
				}).Debug("dropped telemetry on saturated client queue")
			}
		}
	}
}

func (r *Router) routeCommand(S *Session, env *codec.Envelope) {
	deviceID := env.GetString("deviceId")
	device, ok := r.registry.Get(RoleDevice, deviceID)
	if !ok {
		_ = S.Enqueue(errorEnvelope(codec.KindDeviceUnavailable, fmt.Sprintf("device %q is not connected", deviceID)))
		return
	}
	fwd := env.Clone()
	fwd.SetString("clientId", S.ID())
	if err := device.Enqueue(fwd); err != nil {
		r.metrics.IncQueueOverflow()
	}
}

func (r *Router) routeCommandStatus(S *Session, env *codec.Envelope) {
	commandID := env.GetString("command_id")
	if target, ok := r.registry.FindClientByCommandPrefix(commandID); ok {
		_ = target.Enqueue(env.Clone())
		return
	}
	for _, client := range r.registry.ClientSessions() {
		if err := client.Enqueue(env.Clone()); err != nil {
			r.metrics.IncQueueOverflow()
		}
	}
}

func (r *Router) routeSignaling(S *Session, env *codec.Envelope) {
	switch env.Subtype {
	case codec.SubtypeOffer:
		r.routeOffer(S, env)
	case codec.SubtypeAnswer:
		r.routeAnswer(S, env)
	case codec.SubtypeICECandidate, codec.SubtypeClose, codec.SubtypeError:
		r.routeBidirectionalSignaling(S, env)
	default:
		r.routeUnsupported(S, env)
	}
}

func (r *Router) routeOffer(S *Session, env *codec.Envelope) {
	if S.Role() != RoleClient {
		r.routeUnsupported(S, env)
		return
	}
	deviceID := env.GetString("deviceId")
	device, ok := r.registry.Get(RoleDevice, deviceID)
	if !ok {
		_ = S.Enqueue(errorEnvelope(codec.KindPeerUnavailable, fmt.Sprintf("device %q is not connected", deviceID)))
		return
	}
	token := env.GetString("token")
	if token == "" {
		token = uuid.NewString()
	}
	fwd := env.Clone()
	fwd.DeleteField("deviceId")
	fwd.SetString("clientId", S.ID())
	fwd.SetString("token", token)
	if err := device.Enqueue(fwd); err != nil {
		r.metrics.IncQueueOverflow()
		return
	}
	r.signaling.Track(S.ID(), deviceID, token)
}

func (r *Router) routeAnswer(S *Session, env *codec.Envelope) {
	if S.Role() != RoleDevice {
		r.routeUnsupported(S, env)
		return
	}
	clientID := env.GetString("clientId")
	client, ok := r.registry.Get(RoleClient, clientID)
	if !ok {
		_ = S.Enqueue(errorEnvelope(codec.KindPeerUnavailable, fmt.Sprintf("client %q is not connected", clientID)))
		return
	}
	fwd := env.Clone()
	fwd.DeleteField("clientId")
	fwd.SetString("deviceId", S.ID())
	if err := client.Enqueue(fwd); err != nil {
		r.metrics.IncQueueOverflow()
		return
	}
	r.signaling.Touch(clientID, S.ID(), env.GetString("token"))
}

// routeBidirectionalSignaling handles ice_candidate/close/error, addressed
// by deviceId when the client is the sender and by clientId when the
// device is the sender.
func (r *Router) routeBidirectionalSignaling(S *Session, env *codec.Envelope) {
	var target *Session
	var ok bool
	fwd := env.Clone()

	switch S.Role() {
	case RoleClient:
		deviceID := env.GetString("deviceId")
		target, ok = r.registry.Get(RoleDevice, deviceID)
		fwd.DeleteField("deviceId")
		fwd.SetString("clientId", S.ID())
		if !ok {
			_ = S.Enqueue(errorEnvelope(codec.KindPeerUnavailable, fmt.Sprintf("device %q is not connected", deviceID)))
			return
		}
		r.signaling.Touch(S.ID(), deviceID, env.GetString("token"))
	case RoleDevice:
		clientID := env.GetString("clientId")
		target, ok = r.registry.Get(RoleClient, clientID)
		fwd.DeleteField("clientId")
		fwd.SetString("deviceId", S.ID())
		if !ok {
			_ = S.Enqueue(errorEnvelope(codec.KindPeerUnavailable, fmt.Sprintf("client %q is not connected", clientID)))
			return
		}
		r.signaling.Touch(clientID, S.ID(), env.GetString("token"))
	}

	if err := target.Enqueue(fwd); err != nil {
		r.metrics.IncQueueOverflow()
	}
}

// routeUnsupported is the fallback for frames whose type passed the
// codec's closed-set check but match no routing rule for this role.
func (r *Router) routeUnsupported(S *Session, env *codec.Envelope) {
	r.metrics.Inc(metrics.CategoryUnknown)
	if r.logger != nil {
		r.logger.WithFields(logging.Fields{
			"session_id": S.ID(),
			"role":       string(S.Role()),
			"type":       string(env.Type),
		}).Warn("dropping unsupported frame")
	}
	_ = S.Enqueue(errorEnvelope(codec.KindUnsupportedMessage, fmt.Sprintf("type %q is not valid for role %q", env.Type, S.Role())))
}
