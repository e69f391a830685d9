package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usnavy13/PiBoat-Server/internal/codec"
)

func newTestSession(id string, role Role) (*Session, *fakeConn) {
	conn := newFakeConn()
	sess := NewSession(id, role, conn, nil, nil, nil)
	sess.Activate()
	return sess, conn
}

func TestSessionEnqueueRequiresActive(t *testing.T) {
	sess, _ := newTestSession("alpha", RoleDevice)
	sess.lifecycle.Store(int32(StateRegistering))
	err := sess.Enqueue(codec.New(codec.TypePing, nil))
	assert.Error(t, err)
}

func TestSessionEnqueueDropsOnFullQueue(t *testing.T) {
	sess, _ := newTestSession("alpha", RoleDevice)
	for i := 0; i < DefaultOutboundQueueSize; i++ {
		require.NoError(t, sess.Enqueue(codec.New(codec.TypePing, nil)))
	}
	err := sess.Enqueue(codec.New(codec.TypePing, nil))
	assert.ErrorIs(t, err, errQueueOverflow)
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	sess.Close(ReasonPeerClosed)
	sess.Close(ReasonPeerClosed)
	assert.Equal(t, StateClosed, sess.Lifecycle())
	assert.True(t, conn.closed)
}

func TestSessionWritePumpDrainsInOrder(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	go sess.WritePump()

	for i := 0; i < 3; i++ {
		env := codec.New(codec.TypeTelemetry, nil)
		env.SetString("seq", string(rune('0'+i)))
		require.NoError(t, sess.Enqueue(env))
	}

	var seen []string
	for i := 0; i < 3; i++ {
		data, ok := conn.nextOutbound(time.Second)
		require.True(t, ok)
		env, err := codec.Decode(data)
		require.NoError(t, err)
		seen = append(seen, env.GetString("seq"))
	}
	assert.Equal(t, []string{"0", "1", "2"}, seen)
}

func TestSessionTouchClearsHeartbeatFlag(t *testing.T) {
	sess, _ := newTestSession("alpha", RoleDevice)
	sess.MarkHeartbeatSent()
	assert.True(t, sess.HeartbeatOutstanding())
	sess.Touch()
	assert.False(t, sess.HeartbeatOutstanding())
}

func TestSessionReadPumpRepliesToMalformedWithoutDispatch(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	go sess.WritePump()
	conn.push([]byte(`not json`))

	dispatched := false
	go sess.ReadPump(func(*Session, *codec.Envelope) { dispatched = true })

	data, ok := conn.nextOutbound(time.Second)
	require.True(t, ok)
	env, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, codec.TypeError, env.Type)
	assert.Equal(t, codec.KindMalformed, env.GetString("kind"))
	assert.False(t, dispatched)

	sess.Close(ReasonPeerClosed)
}

func TestSessionReadPumpDispatchesDecodedFrame(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	conn.push([]byte(`{"type":"ping"}`))

	received := make(chan *codec.Envelope, 1)
	go sess.ReadPump(func(_ *Session, env *codec.Envelope) { received <- env })

	select {
	case env := <-received:
		assert.Equal(t, codec.TypePing, env.Type)
	case <-time.After(time.Second):
		t.Fatal("dispatch never called")
	}

	sess.Close(ReasonPeerClosed)
}
