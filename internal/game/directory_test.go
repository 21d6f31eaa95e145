// internal/game/directory_test.go
package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomCode(t *testing.T) {
	d := NewDirectory()
	room, host := d.CreateRoom("alice")

	require.Len(t, room.Code, roomCodeLength)
	for _, ch := range room.Code {
		assert.True(t, strings.ContainsRune(roomCodeAlphabet, ch),
			"code %s contains %q outside the alphabet", room.Code, ch)
	}
	assert.Equal(t, "alice", host.Name)
	assert.True(t, host.Connected)
	assert.Equal(t, PhaseLobby, room.Phase)
	assert.Equal(t, 1, d.Len())
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	d := NewDirectory()
	room, _ := d.CreateRoom("alice")

	got, ok := d.GetRoom(strings.ToLower(room.Code))
	require.True(t, ok)
	assert.Same(t, room, got)

	_, _, err := d.JoinRoom(strings.ToLower(room.Code), "bob")
	require.NoError(t, err)
	assert.Len(t, room.Players, 2)
}

func TestJoinRoomErrors(t *testing.T) {
	d := NewDirectory()

	_, _, err := d.JoinRoom("ZZZZ", "bob")
	require.ErrorIs(t, err, ErrRoomNotFound)

	room, _ := d.CreateRoom("alice")
	for i := 1; i < MaxPlayers; i++ {
		_, _, err = d.JoinRoom(room.Code, nameForSeat(i))
		require.NoError(t, err)
	}
	_, _, err = d.JoinRoom(room.Code, "overflow")
	require.ErrorIs(t, err, ErrRoomFull)

	d2 := NewDirectory()
	room2, host2 := d2.CreateRoom("carol")
	for i := 1; i < MinPlayers; i++ {
		_, _, err = d2.JoinRoom(room2.Code, nameForSeat(i))
		require.NoError(t, err)
	}
	require.NoError(t, room2.Start(host2.ID))
	_, _, err = d2.JoinRoom(room2.Code, "late")
	require.ErrorIs(t, err, ErrGameStarted)
}

func TestEmptyLobbyRemovesItself(t *testing.T) {
	d := NewDirectory()
	room, host := d.CreateRoom("alice")
	_, bob, err := d.JoinRoom(room.Code, "bob")
	require.NoError(t, err)
	require.Equal(t, 1, d.Len())

	room.HandleDisconnect(host.ID)
	assert.Equal(t, 1, d.Len(), "lobby with a connected player stays up")

	room.HandleDisconnect(bob.ID)
	assert.Equal(t, 0, d.Len())
	_, ok := d.GetRoom(room.Code)
	assert.False(t, ok)
}

func TestReconnect(t *testing.T) {
	d := NewDirectory()
	room, host := d.CreateRoom("alice")
	_, _, err := d.JoinRoom(room.Code, "bob")
	require.NoError(t, err)

	room.HandleDisconnect(host.ID)
	require.False(t, host.Connected)

	got, err := d.Reconnect(strings.ToLower(room.Code), host.ID)
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.True(t, host.Connected)

	_, err = d.Reconnect("ZZZZ", host.ID)
	require.ErrorIs(t, err, ErrRoomNotFound)
}
