// internal/game/views.go
package game

import "github.com/google/uuid"

// PublicPlayer is what everyone may know about a seat: the hand is a count
// only, face-up cards are fully visible by definition.
type PublicPlayer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	HandCount int       `json:"handCount"`
	FaceUp    []Card    `json:"faceUpCards"`
	IsHost    bool      `json:"isHost"`
	Connected bool      `json:"connected"`
}

// PublicPending exposes the transaction without the card itself: the claim,
// who made it, and who has seen the card are public; its identity is not.
type PublicPending struct {
	ClaimantIndex int          `json:"claimantIndex"`
	ClaimedKind   CreatureKind `json:"claimedKind"`
	SeenBy        []int        `json:"seenBy"`
}

// PublicState is the broadcast view of a room, identical for every recipient.
type PublicState struct {
	RoomCode             string         `json:"roomCode"`
	Phase                Phase          `json:"phase"`
	CurrentPlayerIndex   int            `json:"currentPlayerIndex"`
	ReceivingPlayerIndex int            `json:"receivingPlayerIndex"`
	Players              []PublicPlayer `json:"players"`
	Pending              *PublicPending `json:"pendingCard,omitempty"`
	Loser                *LossRecord    `json:"loser,omitempty"`
	Log                  []LogEntry     `json:"log"`
}

// PrivateState is derived per recipient: their own full hand, and the true
// in-flight card only once their seat is in SeenBy. A player never learns the
// real card before formally viewing or judging it.
type PrivateState struct {
	Hand         []Card `json:"hand"`
	RevealedCard *Card  `json:"revealedCard,omitempty"`
}

// publicState snapshots the broadcast view. Everything is copied because the
// snapshot outlives the lock. Assumes lock is held.
func (r *Room) publicState() *PublicState {
	state := &PublicState{
		RoomCode:             r.Code,
		Phase:                r.Phase,
		CurrentPlayerIndex:   r.CurrentPlayerIndex,
		ReceivingPlayerIndex: r.ReceivingPlayerIndex,
		Players:              make([]PublicPlayer, len(r.Players)),
		Log:                  make([]LogEntry, len(r.Log)),
	}
	for i, p := range r.Players {
		faceUp := make([]Card, len(p.FaceUp))
		copy(faceUp, p.FaceUp)
		state.Players[i] = PublicPlayer{
			ID:        p.ID,
			Name:      p.Name,
			HandCount: len(p.Hand),
			FaceUp:    faceUp,
			IsHost:    i == 0,
			Connected: p.Connected,
		}
	}
	if r.Pending != nil {
		seen := make([]int, len(r.Pending.SeenBy))
		copy(seen, r.Pending.SeenBy)
		state.Pending = &PublicPending{
			ClaimantIndex: r.Pending.ClaimantIndex,
			ClaimedKind:   r.Pending.ClaimedKind,
			SeenBy:        seen,
		}
	}
	if r.Loser != nil {
		loss := *r.Loser
		state.Loser = &loss
	}
	copy(state.Log, r.Log)
	return state
}

// privateState snapshots one seat's private view. Assumes lock is held.
func (r *Room) privateState(playerIdx int) *PrivateState {
	p := r.Players[playerIdx]
	hand := make([]Card, len(p.Hand))
	copy(hand, p.Hand)
	state := &PrivateState{Hand: hand}
	if r.Pending != nil && seenContains(r.Pending.SeenBy, playerIdx) {
		card := r.Pending.Card
		state.RevealedCard = &card
	}
	return state
}

// PublicSnapshot returns the broadcast view for request/response use.
func (r *Room) PublicSnapshot() *PublicState {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.publicState()
}

// PrivateSnapshot returns one player's private view, or an error if they are
// not seated in this room.
func (r *Room) PrivateSnapshot(playerID uuid.UUID) (*PrivateState, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	idx := r.playerIndexByID(playerID)
	if idx == -1 {
		return nil, ErrPlayerNotFound
	}
	return r.privateState(idx), nil
}
