/*
Package codec decodes and encodes the relay hub's wire envelopes.

Every on-wire message is a UTF-8 JSON object with a required "type"
discriminator drawn from a closed set, an optional "subtype", and
category-specific fields the codec never interprets. An Envelope is
modeled as a tagged variant: the Type/Subtype fields are promoted for the
router's addressing logic, everything else stays an opaque
json.RawMessage held by key so it can be forwarded byte-for-byte without
the codec understanding it.
*/
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EnvelopeType is the closed set of frame discriminators the hub accepts.
type EnvelopeType string

const (
	TypePing             EnvelopeType = "ping"
	TypePong             EnvelopeType = "pong"
	TypeDevicesList      EnvelopeType = "devices_list"
	TypeConnectDevice    EnvelopeType = "connect_device"
	TypeGetTelemetry     EnvelopeType = "get_telemetry"
	TypeDeviceConnected  EnvelopeType = "device_connected"
	TypeConnectionStatus EnvelopeType = "connection_status"
	TypeTelemetry        EnvelopeType = "telemetry"
	TypeCommand          EnvelopeType = "command"
	TypeCommandStatus    EnvelopeType = "command_status"
	TypeWebRTC           EnvelopeType = "webrtc"
	TypeError            EnvelopeType = "error"
)

// validTypes is the closed set the codec rejects everything outside of.
var validTypes = map[EnvelopeType]bool{
	TypePing:             true,
	TypePong:             true,
	TypeDevicesList:      true,
	TypeConnectDevice:    true,
	TypeGetTelemetry:     true,
	TypeDeviceConnected:  true,
	TypeConnectionStatus: true,
	TypeTelemetry:        true,
	TypeCommand:          true,
	TypeCommandStatus:    true,
	TypeWebRTC:           true,
	TypeError:            true,
}

// Subtypes for type=webrtc signaling exchanges.
const (
	SubtypeOffer        = "offer"
	SubtypeAnswer       = "answer"
	SubtypeICECandidate = "ice_candidate"
	SubtypeClose        = "close"
	SubtypeError        = "error"
)

// Error kinds reported in error envelopes under the "kind" field. Decode
// does not read an "error" field as an alias for "kind".
const (
	KindMalformed          = "malformed"
	KindUnsupportedMessage = "unsupported_message"
	KindPeerUnavailable    = "peer_unavailable"
	KindDeviceUnavailable  = "device_unavailable"
)

// Envelope is a decoded frame: a typed discriminator plus an opaque field
// bag. Fields is never interpreted beyond what addressing needs (deviceId,
// clientId, command_id, ...); payload bodies (sdp, candidate, data) pass
// through untouched.
type Envelope struct {
	Type    EnvelopeType
	Subtype string
	Fields  map[string]json.RawMessage
}

// New creates an envelope of the given type with a shallow-copied field set.
func New(typ EnvelopeType, fields map[string]json.RawMessage) *Envelope {
	copied := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Envelope{Type: typ, Fields: copied}
}

// Clone returns an envelope with its own copy of the field map so the
// router can mutate addressing fields on a forwarded copy without aliasing
// the sender's envelope.
func (e *Envelope) Clone() *Envelope {
	fields := make(map[string]json.RawMessage, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	return &Envelope{Type: e.Type, Subtype: e.Subtype, Fields: fields}
}

// GetString extracts a string-valued field, returning "" if absent or not
// a JSON string.
func (e *Envelope) GetString(key string) string {
	raw, ok := e.Fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// SetString sets a string-valued field.
func (e *Envelope) SetString(key, value string) {
	raw, _ := json.Marshal(value)
	e.Fields[key] = raw
}

// SetJSON marshals an arbitrary value into a field, for structured bodies
// the codec does not need to re-parse (e.g. the devices_list snapshot).
func (e *Envelope) SetJSON(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	e.Fields[key] = raw
}

// DeleteField removes a field from the bag, e.g. stripping a client's own
// clientId before forwarding an offer to a device that will be told the
// addressing explicitly.
func (e *Envelope) DeleteField(key string) {
	delete(e.Fields, key)
}

// Decode parses inbound bytes into an Envelope, rejecting malformed JSON,
// a missing "type", or a type outside the closed set.
func Decode(data []byte) (*Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codec: %w: %v", errMalformed, err)
	}

	typeRaw, ok := raw["type"]
	if !ok {
		return nil, fmt.Errorf("codec: %w: missing type field", errMalformed)
	}
	var typ EnvelopeType
	if err := json.Unmarshal(typeRaw, &typ); err != nil {
		return nil, fmt.Errorf("codec: %w: type field must be a string", errMalformed)
	}
	if !validTypes[typ] {
		return nil, fmt.Errorf("codec: %w: unknown type %q", errUnsupported, typ)
	}

	env := &Envelope{Type: typ, Fields: raw}
	delete(env.Fields, "type")

	if subRaw, ok := raw["subtype"]; ok {
		var sub string
		if err := json.Unmarshal(subRaw, &sub); err == nil {
			env.Subtype = sub
		}
		delete(env.Fields, "subtype")
	}

	return env, nil
}

// Encode renders an envelope back to its textual wire form.
func Encode(env *Envelope) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(env.Fields)+2)
	for k, v := range env.Fields {
		out[k] = v
	}
	typeRaw, err := json.Marshal(env.Type)
	if err != nil {
		return nil, fmt.Errorf("codec: encode type: %w", err)
	}
	out["type"] = typeRaw
	if env.Subtype != "" {
		subRaw, err := json.Marshal(env.Subtype)
		if err != nil {
			return nil, fmt.Errorf("codec: encode subtype: %w", err)
		}
		out["subtype"] = subRaw
	}
	return json.Marshal(out)
}

// errMalformed and errUnsupported are sentinel wrapping targets so callers
// can classify a decode failure without string matching.
var (
	errMalformed   = fmt.Errorf(KindMalformed)
	errUnsupported = fmt.Errorf(KindUnsupportedMessage)
)

// IsMalformed reports whether err was produced by a malformed frame.
func IsMalformed(err error) bool { return errors.Is(err, errMalformed) }

// IsUnsupported reports whether err was produced by an unknown type.
func IsUnsupported(err error) bool { return errors.Is(err, errUnsupported) }
