package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usnavy13/PiBoat-Server/internal/hub"
	"github.com/usnavy13/PiBoat-Server/internal/hub/metrics"
)

func newTestServer(t *testing.T, addr string) (*Server, *hub.Registry) {
	t.Helper()
	counters := metrics.New()
	registry := hub.NewRegistry(10, counters, nil)
	signaling := hub.NewSignalingTracker(nil)
	router := hub.NewRouter(registry, signaling, counters, nil)
	supervisor := hub.NewSupervisor(time.Hour, time.Hour, nil)

	srv := NewServer(addr, registry, router, supervisor, signaling, counters, nil, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	time.Sleep(50 * time.Millisecond)
	return srv, registry
}

func dial(t *testing.T, addr, path string) *websocket.Conn {
	t.Helper()
	url := "ws://" + addr + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestServerRegistersDeviceSessionOnConnect(t *testing.T) {
	addr := "127.0.0.1:18181"
	_, registry := newTestServer(t, addr)

	conn := dial(t, addr, "/device/alpha")
	defer conn.Close()

	require.Eventually(t, func() bool {
		_, ok := registry.Get(hub.RoleDevice, "alpha")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestServerRoutesPingToPong(t *testing.T) {
	addr := "127.0.0.1:18182"
	newTestServer(t, addr)

	conn := dial(t, addr, "/client/c1")
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	var typ string
	require.NoError(t, json.Unmarshal(msg["type"], &typ))
	assert.Equal(t, "pong", typ)
}

func TestServerDeregistersOnDisconnect(t *testing.T) {
	addr := "127.0.0.1:18183"
	_, registry := newTestServer(t, addr)

	conn := dial(t, addr, "/device/beta")
	require.Eventually(t, func() bool {
		_, ok := registry.Get(hub.RoleDevice, "beta")
		return ok
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		_, ok := registry.Get(hub.RoleDevice, "beta")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestServerRejectsMissingPathID(t *testing.T) {
	addr := "127.0.0.1:18184"
	newTestServer(t, addr)

	resp, err := http.Get("http://" + addr + "/device/")
	if err == nil {
		defer resp.Body.Close()
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	}
}
