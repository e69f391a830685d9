package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usnavy13/PiBoat-Server/internal/codec"
)

func TestRegistrySupersedesPriorSession(t *testing.T) {
	reg := NewRegistry(10, nil, nil)
	first, _ := newTestSession("alpha", RoleDevice)
	second, _ := newTestSession("alpha", RoleDevice)

	reg.Register(first)
	reg.Register(second)

	assert.Equal(t, StateClosed, first.Lifecycle())
	got, ok := reg.Get(RoleDevice, "alpha")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryDeregisterGuardsAgainstStaleSession(t *testing.T) {
	reg := NewRegistry(10, nil, nil)
	first, _ := newTestSession("alpha", RoleDevice)
	second, _ := newTestSession("alpha", RoleDevice)

	h1 := reg.Register(first)
	reg.Register(second)
	h1.Deregister()

	got, ok := reg.Get(RoleDevice, "alpha")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryNotifiesClientsOnDeviceConnectAndDisconnect(t *testing.T) {
	reg := NewRegistry(10, nil, nil)
	client, clientConn := newTestSession("c1", RoleClient)
	go client.WritePump()
	reg.Register(client)

	device, _ := newTestSession("alpha", RoleDevice)
	h := reg.Register(device)

	data, ok := clientConn.nextOutbound(time.Second)
	require.True(t, ok)
	env, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "connected", env.GetString("status"))

	h.Deregister()

	data, ok = clientConn.nextOutbound(time.Second)
	require.True(t, ok)
	env, err = codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "disconnected", env.GetString("status"))
}

func TestRegistryListDevicesIncludesDisconnected(t *testing.T) {
	reg := NewRegistry(10, nil, nil)
	device, _ := newTestSession("alpha", RoleDevice)
	h := reg.Register(device)
	h.Deregister()

	devices := reg.ListDevices()
	require.Len(t, devices, 1)
	assert.Equal(t, "alpha", devices[0].ID)
	assert.False(t, devices[0].Connected)
}

func TestFindClientByCommandPrefixPrefersLongestMatch(t *testing.T) {
	reg := NewRegistry(10, nil, nil)
	short, _ := newTestSession("c1", RoleClient)
	long, _ := newTestSession("c1-extra", RoleClient)
	reg.Register(short)
	reg.Register(long)

	got, ok := reg.FindClientByCommandPrefix("c1-extra-99")
	require.True(t, ok)
	assert.Same(t, long, got)
}

func TestFindClientByCommandPrefixNoMatch(t *testing.T) {
	reg := NewRegistry(10, nil, nil)
	client, _ := newTestSession("c1", RoleClient)
	reg.Register(client)

	_, ok := reg.FindClientByCommandPrefix("unrelated-1")
	assert.False(t, ok)
}
