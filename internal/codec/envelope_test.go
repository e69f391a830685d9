package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"type":"telemetry","deviceId":"alpha","data":{"seq":1}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeTelemetry, env.Type)
	assert.Equal(t, "alpha", env.GetString("deviceId"))
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"deviceId":"alpha"}`))
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"teleport"}`))
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestDecodeExtractsSubtype(t *testing.T) {
	env, err := Decode([]byte(`{"type":"webrtc","subtype":"offer","deviceId":"alpha","sdp":"S"}`))
	require.NoError(t, err)
	assert.Equal(t, "offer", env.Subtype)
	assert.Equal(t, "S", env.GetString("sdp"))
	_, hasSubtypeField := env.Fields["subtype"]
	assert.False(t, hasSubtypeField, "subtype should be promoted out of Fields")
}

func TestEncodeRoundTrip(t *testing.T) {
	env := New(TypeWebRTC, nil)
	env.Subtype = SubtypeAnswer
	env.SetString("clientId", "c1")
	env.SetString("sdp", "A")

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeWebRTC, decoded.Type)
	assert.Equal(t, SubtypeAnswer, decoded.Subtype)
	assert.Equal(t, "c1", decoded.GetString("clientId"))
	assert.Equal(t, "A", decoded.GetString("sdp"))
}

func TestCloneDoesNotAliasFields(t *testing.T) {
	env := New(TypeCommand, nil)
	env.SetString("deviceId", "alpha")

	clone := env.Clone()
	clone.SetString("deviceId", "beta")

	assert.Equal(t, "alpha", env.GetString("deviceId"))
	assert.Equal(t, "beta", clone.GetString("deviceId"))
}
