// internal/handlers/server_test.go
package handlers

import (
	"testing"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReplaceAndStaleUnregister(t *testing.T) {
	s := NewServer(logrus.New())
	playerID := uuid.New()

	// Conn handles are only compared by pointer here, never written to.
	oldConn := &websocket.Conn{}
	newConn := &websocket.Conn{}

	s.register("ABCD", playerID, oldConn)
	require.Same(t, oldConn, s.connsForRoom("ABCD")[playerID])

	// A reconnect replaces the handle.
	s.register("ABCD", playerID, newConn)
	require.Same(t, newConn, s.connsForRoom("ABCD")[playerID])

	// The old reader loop unregistering its stale handle must not evict the
	// replacement, and must learn it was not the current handle.
	assert.False(t, s.unregister("ABCD", playerID, oldConn))
	assert.Same(t, newConn, s.connsForRoom("ABCD")[playerID])

	assert.True(t, s.unregister("ABCD", playerID, newConn))
	assert.Empty(t, s.connsForRoom("ABCD"))
}

func TestStaleCloseAfterReconnectKeepsPlayerLive(t *testing.T) {
	s := NewServer(logrus.New())
	room, host := s.Directory.CreateRoom("alice")
	s.BindRoom(room)
	// The placeholder conns must never be written to, so silence the hooks.
	room.BroadcastFn = nil
	room.BroadcastToPlayerFn = nil

	oldConn := &websocket.Conn{}
	newConn := &websocket.Conn{}
	s.register(room.Code, host.ID, oldConn)

	// The client rejoins on a fresh socket before the stale reader loop has
	// unwound.
	s.register(room.Code, host.ID, newConn)
	_, err := s.Directory.Reconnect(room.Code, host.ID)
	require.NoError(t, err)

	// The stale loop's teardown sees its handle is no longer current, so it
	// records no disconnect: the player stays live and the lobby survives.
	require.False(t, s.unregister(room.Code, host.ID, oldConn))
	assert.True(t, host.Connected)
	assert.Equal(t, 1, s.Directory.Len())
	assert.Same(t, newConn, s.connsForRoom(room.Code)[host.ID])

	// Closing the current handle is a real disconnect and, with nobody left
	// in the lobby, tears the room down.
	require.True(t, s.unregister(room.Code, host.ID, newConn))
	room.HandleDisconnect(host.ID)
	assert.False(t, host.Connected)
	assert.Equal(t, 0, s.Directory.Len())
}

func TestDropRoomForgetsAllHandles(t *testing.T) {
	s := NewServer(logrus.New())
	s.register("ABCD", uuid.New(), &websocket.Conn{})
	s.register("ABCD", uuid.New(), &websocket.Conn{})
	s.register("WXYZ", uuid.New(), &websocket.Conn{})

	s.dropRoom("ABCD")
	assert.Empty(t, s.connsForRoom("ABCD"))
	assert.Len(t, s.connsForRoom("WXYZ"), 1)
}

func TestBindRoomWrapsOnEmpty(t *testing.T) {
	s := NewServer(logrus.New())
	room, host := s.Directory.CreateRoom("alice")
	s.BindRoom(room)
	// The placeholder conn must never be written to, so silence the hooks.
	room.BroadcastFn = nil
	room.BroadcastToPlayerFn = nil
	s.register(room.Code, host.ID, &websocket.Conn{})

	require.Equal(t, 1, s.Directory.Len())
	room.HandleDisconnect(host.ID)

	// The directory entry and the transport handles both go away.
	assert.Equal(t, 0, s.Directory.Len())
	assert.Empty(t, s.connsForRoom(room.Code))
}
