// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thanwa/malaengsab/internal/cache"
	"github.com/thanwa/malaengsab/internal/game"
)

// Server owns the room directory and the live WebSocket connections that
// deliver room events. The game package never sees a connection; it calls
// the broadcast hooks installed here.
type Server struct {
	Directory *game.Directory
	Logger    *logrus.Logger

	mu    sync.Mutex
	conns map[string]map[uuid.UUID]*websocket.Conn // room code -> player -> conn
}

// NewServer returns a Server with an empty directory.
func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Directory: game.NewDirectory(),
		Logger:    logger,
		conns:     make(map[string]map[uuid.UUID]*websocket.Conn),
	}
}

// register binds a player's current connection for a room, replacing any
// previous handle for the same player.
func (s *Server) register(code string, playerID uuid.UUID, c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[code] == nil {
		s.conns[code] = make(map[uuid.UUID]*websocket.Conn)
	}
	s.conns[code][playerID] = c
}

// unregister drops a player's connection, but only if it is still the one
// being closed; a reconnect may have replaced it already. Reports whether the
// handle was still current, so only the current handle's reader loop records
// a disconnect.
func (s *Server) unregister(code string, playerID uuid.UUID, c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.conns[code]
	if !ok || room[playerID] != c {
		return false
	}
	delete(room, playerID)
	if len(room) == 0 {
		delete(s.conns, code)
	}
	return true
}

// dropRoom discards every connection handle for a torn-down room.
func (s *Server) dropRoom(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, code)
}

// connsForRoom snapshots the current connections of a room.
func (s *Server) connsForRoom(code string) map[uuid.UUID]*websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[uuid.UUID]*websocket.Conn, len(s.conns[code]))
	for id, c := range s.conns[code] {
		snapshot[id] = c
	}
	return snapshot
}

// BindRoom installs the transport hooks on a freshly created room. The hooks
// are invoked while the room lock is held, so they must only snapshot and
// hand off; all socket writes happen asynchronously.
func (s *Server) BindRoom(room *game.Room) {
	code := room.Code

	room.BroadcastFn = func(ev game.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.Logger.Errorf("Failed to marshal broadcast event (%s) for room %s: %v", ev.Type, code, err)
			return
		}
		conns := s.connsForRoom(code)
		go func() {
			for id, c := range conns {
				writeWithTimeout(s.Logger, c, data, id, code)
			}
		}()
	}

	room.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.Logger.Errorf("Failed to marshal private event (%s) for player %s in room %s: %v", ev.Type, playerID, code, err)
			return
		}
		conns := s.connsForRoom(code)
		c, ok := conns[playerID]
		if !ok {
			return
		}
		go writeWithTimeout(s.Logger, c, data, playerID, code)
	}

	room.JournalFn = func(actorID uuid.UUID, action string, payload map[string]interface{}) {
		record := cache.RoomActionRecord{
			RoomCode:      code,
			ActorID:       actorID.String(),
			ActionType:    action,
			ActionPayload: payload,
			Timestamp:     time.Now().UnixMilli(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := cache.PublishRoomAction(ctx, record); err != nil {
				s.Logger.Warnf("Failed to journal action %s for room %s: %v", action, code, err)
			}
		}()
	}

	// The directory already tears the room down when its lobby empties; the
	// transport additionally forgets its handles.
	prevOnEmpty := room.OnEmpty
	room.OnEmpty = func(code string) {
		if prevOnEmpty != nil {
			prevOnEmpty(code)
		}
		s.dropRoom(code)
	}
}

// writeWithTimeout writes one frame with a bounded deadline. Write failures
// are logged and left to the reader loop to detect as a disconnect.
func writeWithTimeout(logger *logrus.Logger, c *websocket.Conn, data []byte, playerID uuid.UUID, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		logger.Warnf("Failed to write message to player %s in room %s: %v", playerID, code, err)
	}
}
