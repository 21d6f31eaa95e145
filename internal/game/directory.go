// internal/game/directory.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// roomCodeAlphabet omits glyphs that are easy to confuse when read aloud or
// typed from a phone (I, O, 0, 1).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 4

// Directory maps room codes to live Room instances. It owns creation,
// lookup, and teardown; everything inside a room is the room's own business.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand
}

// NewDirectory returns an empty in-memory room directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// generateCode draws a fresh room code. Assumes lock is held.
func (d *Directory) generateCode() string {
	var b strings.Builder
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeAlphabet[d.rng.Intn(len(roomCodeAlphabet))])
	}
	return b.String()
}

// CreateRoom allocates a code unique among live rooms, seats the host, and
// registers the room. The room deletes itself from the directory when its
// lobby empties out.
func (d *Directory) CreateRoom(hostName string) (*Room, *Player) {
	d.mu.Lock()
	defer d.mu.Unlock()

	code := d.generateCode()
	for _, taken := d.rooms[code]; taken; _, taken = d.rooms[code] {
		code = d.generateCode()
	}

	room, host := NewRoom(code, hostName)
	room.OnEmpty = d.DeleteRoom
	d.rooms[code] = room
	return room, host
}

// GetRoom resolves a code to a room. Codes are case-insensitive on the way
// in; they are stored uppercase.
func (d *Directory) GetRoom(code string) (*Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[strings.ToUpper(code)]
	return r, ok
}

// JoinRoom seats a new player in an existing lobby.
func (d *Directory) JoinRoom(code, name string) (*Room, *Player, error) {
	room, ok := d.GetRoom(code)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	p, err := room.Join(name)
	if err != nil {
		return nil, nil, err
	}
	return room, p, nil
}

// Reconnect resolves a (code, playerID) pair back to a live room and marks
// the player reachable again.
func (d *Directory) Reconnect(code string, playerID uuid.UUID) (*Room, error) {
	room, ok := d.GetRoom(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := room.HandleReconnect(playerID); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom removes a room from the directory. Idempotent.
func (d *Directory) DeleteRoom(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, strings.ToUpper(code))
}

// Len reports how many rooms are live.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}
