package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usnavy13/PiBoat-Server/internal/codec"
)

func TestSupervisorSendsPingsOnInterval(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	go sess.WritePump()

	sup := NewSupervisor(10*time.Millisecond, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Watch(ctx, sess)

	data, ok := conn.nextOutbound(time.Second)
	require.True(t, ok)
	env, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, codec.TypePing, env.Type)
	assert.True(t, sess.HeartbeatOutstanding())
}

func TestSupervisorClosesOnTimeout(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	go sess.WritePump()

	sup := NewSupervisor(5*time.Millisecond, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Watch(ctx, sess)

	conn.drainOutbox(100 * time.Millisecond)

	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("session never closed after heartbeat timeout")
	}
	assert.Equal(t, StateClosed, sess.Lifecycle())
}

func TestSupervisorPongPreventsTimeout(t *testing.T) {
	sess, conn := newTestSession("alpha", RoleDevice)
	go sess.WritePump()

	sup := NewSupervisor(5*time.Millisecond, 30*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Watch(ctx, sess)

	stop := time.After(60 * time.Millisecond)
	for {
		select {
		case <-conn.outbox:
			sess.Touch()
		case <-stop:
			assert.Equal(t, StateActive, sess.Lifecycle())
			return
		}
	}
}
