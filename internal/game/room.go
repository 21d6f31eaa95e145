// internal/game/room.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle state of a room. Transitions are one-way
// (lobby -> playing -> gameover) except for the explicit host reset, which
// returns a finished room to the lobby with its roster intact.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "gameover"
)

// EventType labels messages the room pushes out through its broadcast hooks.
type EventType string

const (
	EventPublicState        EventType = "game_state"
	EventPrivateState       EventType = "private_state"
	EventGuessResult        EventType = "guess_result"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
)

// Event is the single envelope pushed to clients. Exactly one of the optional
// fields is set depending on Type.
type Event struct {
	Type    EventType              `json:"type"`
	State   *PublicState           `json:"state,omitempty"`
	Private *PrivateState          `json:"private,omitempty"`
	Result  *JudgeResult           `json:"result,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Player is one seat in a room. ID is stable across reconnects; how the
// player is currently reached is the transport layer's concern, the room only
// tracks whether they are reachable at all.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Hand      []Card    `json:"hand"`
	FaceUp    []Card    `json:"faceUp"`
	Connected bool      `json:"connected"`
}

// PendingCard is the at-most-one card in flight for a room. ClaimantIndex is
// whoever made the most recent claim about it; SeenBy holds seat indices that
// have viewed the card face and may never be offered it again.
type PendingCard struct {
	Card          Card
	ClaimantIndex int
	ClaimedKind   CreatureKind
	SeenBy        []int
}

// LossRecord explains a finished game.
type LossRecord struct {
	PlayerIndex int          `json:"playerIndex"`
	Reason      string       `json:"reason"`
	Kind        CreatureKind `json:"kind,omitempty"`
}

// LogEntry is one line of the room log, pushed newest-first.
type LogEntry struct {
	Time    string `json:"time"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

const maxLogEntries = 50

// Room holds the entire authoritative state for one game session. All state
// transitions for a room are serialized through Mu; rooms never contend with
// each other.
type Room struct {
	Code    string
	Phase   Phase
	Players []*Player // seat order; index 0 is host

	Deck                 []Card
	CurrentPlayerIndex   int
	Pending              *PendingCard
	ReceivingPlayerIndex int // -1 when no card is in flight
	Log                  []LogEntry
	Loser                *LossRecord

	Mu sync.Mutex

	// BroadcastFn sends an event to every player in the room. If nil, no
	// broadcast is done.
	BroadcastFn func(ev Event)

	// BroadcastToPlayerFn sends an event to a single player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)

	// OnEmpty is called when a lobby-phase room loses its last connected
	// player, so the owning directory can tear it down.
	OnEmpty func(code string)

	// JournalFn, when set, receives a record of every applied state
	// transition for external archival. Fire-and-forget.
	JournalFn func(actorID uuid.UUID, action string, payload map[string]interface{})

	// now is swappable for deterministic log timestamps in tests.
	now func() time.Time
}

// NewRoom creates a lobby-phase room with the host seated at index 0.
func NewRoom(code, hostName string) (*Room, *Player) {
	host := &Player{
		ID:        uuid.New(),
		Name:      hostName,
		Hand:      []Card{},
		FaceUp:    []Card{},
		Connected: true,
	}
	r := &Room{
		Code:                 code,
		Phase:                PhaseLobby,
		Players:              []*Player{host},
		ReceivingPlayerIndex: -1,
		now:                  time.Now,
	}
	return r, host
}

// AddPlayer seats a new player. Assumes lock is held.
func (r *Room) addPlayer(name string) (*Player, error) {
	if r.Phase != PhaseLobby {
		return nil, ErrGameStarted
	}
	if len(r.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	p := &Player{
		ID:        uuid.New(),
		Name:      name,
		Hand:      []Card{},
		FaceUp:    []Card{},
		Connected: true,
	}
	r.Players = append(r.Players, p)
	return p, nil
}

// Join seats a new player and pushes the updated roster to the room.
func (r *Room) Join(name string) (*Player, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	p, err := r.addPlayer(name)
	if err != nil {
		return nil, err
	}
	r.journal(p.ID, "player_join", map[string]interface{}{"name": name})
	r.broadcastState()
	return p, nil
}

// playerIndexByID returns the seat index for a player id, or -1.
// Assumes lock is held.
func (r *Room) playerIndexByID(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// countConnected returns how many players are currently reachable.
// Assumes lock is held.
func (r *Room) countConnected() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// addLog prepends an entry, keeping only the most recent entries.
// Assumes lock is held.
func (r *Room) addLog(message, typ string) {
	entry := LogEntry{Time: r.now().Format("15:04"), Message: message, Type: typ}
	r.Log = append([]LogEntry{entry}, r.Log...)
	if len(r.Log) > maxLogEntries {
		r.Log = r.Log[:maxLogEntries]
	}
}

// journal forwards an applied transition to the archival hook, if any.
// Assumes lock is held.
func (r *Room) journal(actorID uuid.UUID, action string, payload map[string]interface{}) {
	if r.JournalFn != nil {
		r.JournalFn(actorID, action, payload)
	}
}

// fireEvent pushes an event to every player. Assumes lock is held; broadcast
// hooks must not re-enter the room.
func (r *Room) fireEvent(ev Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

// fireEventToPlayer pushes an event to one player. Assumes lock is held.
func (r *Room) fireEventToPlayer(playerID uuid.UUID, ev Event) {
	if r.BroadcastToPlayerFn != nil {
		r.BroadcastToPlayerFn(playerID, ev)
	}
}

// broadcastState recomputes and pushes the public view to everyone and each
// player's private view to them. This is the only path state leaves the room
// on, so the visibility rules in views.go hold for every update.
// Assumes lock is held.
func (r *Room) broadcastState() {
	public := r.publicState()
	r.fireEvent(Event{Type: EventPublicState, State: public})
	for i, p := range r.Players {
		private := r.privateState(i)
		r.fireEventToPlayer(p.ID, Event{Type: EventPrivateState, Private: private})
	}
}

// HandleDisconnect marks a player unreachable. The player keeps their seat
// and the turn clock is unaffected; a lobby-phase room with nobody left tears
// itself down through OnEmpty.
func (r *Room) HandleDisconnect(playerID uuid.UUID) {
	r.Mu.Lock()
	idx := r.playerIndexByID(playerID)
	if idx == -1 || !r.Players[idx].Connected {
		r.Mu.Unlock()
		return
	}
	p := r.Players[idx]
	p.Connected = false
	r.journal(playerID, "player_disconnect", nil)

	r.fireEvent(Event{Type: EventPlayerDisconnected, Payload: map[string]interface{}{"playerName": p.Name}})
	r.broadcastState()

	teardown := r.Phase == PhaseLobby && r.countConnected() == 0
	onEmpty := r.OnEmpty
	r.Mu.Unlock()

	if teardown && onEmpty != nil {
		onEmpty(r.Code)
	}
}

// HandleReconnect marks a player reachable again and resends their state.
// Hand and turn position are untouched; only the delivery path changed.
func (r *Room) HandleReconnect(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	idx := r.playerIndexByID(playerID)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	p := r.Players[idx]
	p.Connected = true
	r.journal(playerID, "player_reconnect", nil)

	r.fireEvent(Event{Type: EventPlayerReconnected, Payload: map[string]interface{}{"playerName": p.Name}})
	r.broadcastState()
	return nil
}

// Reset returns a finished (or in-progress) room to the lobby. Host only.
// The roster and connection states survive; every per-round artifact is
// cleared.
func (r *Room) Reset(requesterID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if len(r.Players) == 0 || r.Players[0].ID != requesterID {
		return ErrNotHost
	}

	r.Phase = PhaseLobby
	r.Deck = nil
	r.CurrentPlayerIndex = 0
	r.Pending = nil
	r.ReceivingPlayerIndex = -1
	r.Log = nil
	r.Loser = nil
	for _, p := range r.Players {
		p.Hand = []Card{}
		p.FaceUp = []Card{}
	}
	r.journal(requesterID, "room_reset", nil)
	r.broadcastState()
	return nil
}
