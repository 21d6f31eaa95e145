// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thanwa/malaengsab/internal/auth"
	"github.com/thanwa/malaengsab/internal/game"
)

// ClientMessage is the envelope for every inbound WebSocket message. Fields
// are optional and validated per message type.
type ClientMessage struct {
	Type string `json:"type"`

	Name     string `json:"name,omitempty"`
	RoomCode string `json:"room_code,omitempty"`
	Token    string `json:"token,omitempty"`

	CardIndex   *int   `json:"card_index,omitempty"`
	TargetIndex *int   `json:"target_index,omitempty"`
	ClaimedKind string `json:"claimed_kind,omitempty"`
	Believes    *bool  `json:"believes,omitempty"`
}

// session is the per-connection binding of a socket to a seat, established by
// create_room, join_room, or reconnect.
type session struct {
	room     *game.Room
	playerID uuid.UUID
}

// RoomWSHandler upgrades the HTTP connection to WebSocket and runs the
// message loop. A single endpoint carries the whole lifecycle: room creation,
// joining, gameplay, and reconnection.
func RoomWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'game' subprotocol.")
			return
		}
		logger.Infof("WebSocket connection established from %s", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := readRoomMessages(ctx, c, s, logger)

		// The read loop exited: the socket is gone. The seat stays in the
		// rotation, marked unreachable. A reconnect may already have replaced
		// this handle; a stale loop must not mark the live player gone.
		if sess != nil {
			logger.Infof("Player %s WebSocket read loop exited for room %s.", sess.playerID, sess.room.Code)
			if s.unregister(sess.room.Code, sess.playerID, c) {
				sess.room.HandleDisconnect(sess.playerID)
			}
		}
	}
}

// readRoomMessages reads, validates, and routes client messages until the
// connection drops. Returns the session if one was established.
func readRoomMessages(ctx context.Context, c *websocket.Conn, s *Server, logger *logrus.Logger) *session {
	var sess *session
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Info("WebSocket closed normally.")
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("Error reading from WebSocket: %v (Status: %d)", err, status)
			}
			return sess
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received: %v. Data: %s", err, string(data))
			sendWsError(ctx, c, logger, errors.New("invalid JSON format"))
			continue
		}

		logger.Debugf("Received message type '%s'", msg.Type)

		switch msg.Type {
		case "create_room":
			sess = handleCreateRoom(ctx, c, s, logger, sess, msg)
		case "join_room":
			sess = handleJoinRoom(ctx, c, s, logger, sess, msg)
		case "reconnect":
			sess = handleReconnect(ctx, c, s, logger, sess, msg)
		case "ping":
			sendWsMessage(ctx, c, logger, map[string]string{"type": "pong"})
		default:
			if sess == nil {
				sendWsError(ctx, c, logger, errors.New("join or create a room first"))
				continue
			}
			handleRoomAction(ctx, c, logger, sess, msg)
		}
	}
}

func handleCreateRoom(ctx context.Context, c *websocket.Conn, s *Server, logger *logrus.Logger, sess *session, msg ClientMessage) *session {
	if sess != nil {
		sendWsError(ctx, c, logger, errors.New("already in a room"))
		return sess
	}
	if strings.TrimSpace(msg.Name) == "" {
		sendWsError(ctx, c, logger, errors.New("a player name is required"))
		return nil
	}

	room, host := s.Directory.CreateRoom(strings.TrimSpace(msg.Name))
	s.BindRoom(room)
	s.register(room.Code, host.ID, c)

	token, err := auth.CreateRejoinToken(room.Code, host.ID.String())
	if err != nil {
		logger.Errorf("Failed to mint rejoin token for room %s: %v", room.Code, err)
	}
	logger.Infof("Room %s created by %s", room.Code, host.Name)

	sendWsMessage(ctx, c, logger, map[string]interface{}{
		"type":      "room_created",
		"room_code": room.Code,
		"player_id": host.ID.String(),
		"token":     token,
		"state":     room.PublicSnapshot(),
	})
	return &session{room: room, playerID: host.ID}
}

func handleJoinRoom(ctx context.Context, c *websocket.Conn, s *Server, logger *logrus.Logger, sess *session, msg ClientMessage) *session {
	if sess != nil {
		sendWsError(ctx, c, logger, errors.New("already in a room"))
		return sess
	}
	if strings.TrimSpace(msg.Name) == "" || msg.RoomCode == "" {
		sendWsError(ctx, c, logger, errors.New("a room code and player name are required"))
		return nil
	}

	room, player, err := s.Directory.JoinRoom(msg.RoomCode, strings.TrimSpace(msg.Name))
	if err != nil {
		sendWsError(ctx, c, logger, err)
		return nil
	}
	s.register(room.Code, player.ID, c)

	token, err := auth.CreateRejoinToken(room.Code, player.ID.String())
	if err != nil {
		logger.Errorf("Failed to mint rejoin token for room %s: %v", room.Code, err)
	}
	logger.Infof("%s joined room %s", player.Name, room.Code)

	sendWsMessage(ctx, c, logger, map[string]interface{}{
		"type":      "room_joined",
		"room_code": room.Code,
		"player_id": player.ID.String(),
		"token":     token,
		"state":     room.PublicSnapshot(),
	})
	return &session{room: room, playerID: player.ID}
}

func handleReconnect(ctx context.Context, c *websocket.Conn, s *Server, logger *logrus.Logger, sess *session, msg ClientMessage) *session {
	if sess != nil {
		sendWsError(ctx, c, logger, errors.New("already in a room"))
		return sess
	}

	code, playerIDStr, err := auth.VerifyRejoinToken(msg.Token)
	if err != nil {
		sendWsError(ctx, c, logger, errors.New("invalid rejoin token"))
		return nil
	}
	playerID, err := uuid.Parse(playerIDStr)
	if err != nil {
		sendWsError(ctx, c, logger, errors.New("invalid rejoin token"))
		return nil
	}

	// Register the new handle before flipping the connected flag, so the
	// reconnect broadcast reaches the rejoining player too.
	s.register(code, playerID, c)
	room, err := s.Directory.Reconnect(code, playerID)
	if err != nil {
		s.unregister(code, playerID, c)
		sendWsError(ctx, c, logger, err)
		return nil
	}
	logger.Infof("Player %s reconnected to room %s", playerID, code)

	private, _ := room.PrivateSnapshot(playerID)
	sendWsMessage(ctx, c, logger, map[string]interface{}{
		"type":      "reconnected",
		"room_code": room.Code,
		"player_id": playerID.String(),
		"state":     room.PublicSnapshot(),
		"private":   private,
	})
	return &session{room: room, playerID: playerID}
}

// handleRoomAction routes gameplay messages for an established session.
func handleRoomAction(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, sess *session, msg ClientMessage) {
	room := sess.room
	var err error

	switch msg.Type {
	case "start_game":
		err = room.Start(sess.playerID)

	case "send_card":
		if msg.CardIndex == nil || msg.TargetIndex == nil {
			err = errors.New("card_index and target_index are required")
			break
		}
		kind, ok := game.ParseKind(msg.ClaimedKind)
		if !ok {
			err = game.ErrInvalidClaim
			break
		}
		err = room.SendCard(sess.playerID, *msg.CardIndex, *msg.TargetIndex, kind)

	case "guess":
		if msg.Believes == nil {
			err = errors.New("believes is required")
			break
		}
		// The result reaches everyone through the room broadcast.
		_, err = room.Judge(sess.playerID, *msg.Believes)

	case "view_card":
		var view *game.ViewResult
		view, err = room.ViewCard(sess.playerID)
		if err == nil {
			sendWsMessage(ctx, c, logger, map[string]interface{}{
				"type": "card_view",
				"view": view,
			})
			return
		}

	case "pass_card":
		if msg.TargetIndex == nil {
			err = errors.New("target_index is required")
			break
		}
		kind, ok := game.ParseKind(msg.ClaimedKind)
		if !ok {
			err = game.ErrInvalidClaim
			break
		}
		err = room.PassCard(sess.playerID, *msg.TargetIndex, kind)

	case "play_again":
		err = room.Reset(sess.playerID)

	default:
		err = fmt.Errorf("unknown message type: %s", msg.Type)
	}

	if err != nil {
		sendWsError(ctx, c, logger, err)
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
func sendWsMessage(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logger.Warnf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
	}
}

// sendWsError reports a rejected request to the acting client only. Engine
// errors carry their kind and stable code onto the wire.
func sendWsError(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, err error) {
	payload := map[string]interface{}{
		"type":    "error",
		"message": err.Error(),
	}
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		payload["code"] = gameErr.Code
		payload["kind"] = string(gameErr.Kind)
	}
	sendWsMessage(ctx, c, logger, payload)
}
