// internal/game/engine.go
package game

import (
	"fmt"

	"github.com/google/uuid"
)

// JudgeResult is the outcome of a believe/disbelieve call, broadcast to the
// whole room once the card has landed.
type JudgeResult struct {
	GuessedCorrectly bool         `json:"guessedCorrectly"`
	ActualKind       CreatureKind `json:"actualKind"`
	ActualCard       Card         `json:"actualCard"`
	LoserIndex       int          `json:"loserIndex"`
	LoserName        string       `json:"loserName"`
}

// TargetOption is a seat a viewed card may still be passed to.
type TargetOption struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// ViewResult reveals the true card to the current receiver, private to them.
type ViewResult struct {
	Card             Card           `json:"card"`
	AvailableTargets []TargetOption `json:"availableTargets"`
}

// Start deals the deck and begins play. Only the host may start, and at
// least MinPlayers must be seated. Each player receives floor(64/n) cards;
// any remainder stays undealt and out of play.
func (r *Room) Start(requesterID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if len(r.Players) == 0 || r.Players[0].ID != requesterID {
		return ErrNotHost
	}
	if r.Phase != PhaseLobby {
		return ErrGameStarted
	}
	if len(r.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	deck := ShuffleDeck(BuildDeck())
	perPlayer := len(deck) / len(r.Players)
	for i, p := range r.Players {
		hand := make([]Card, perPlayer)
		copy(hand, deck[i*perPlayer:(i+1)*perPlayer])
		p.Hand = hand
		p.FaceUp = []Card{}
	}
	// Whatever the deal doesn't divide evenly stays here, out of play.
	r.Deck = deck[perPlayer*len(r.Players):]

	r.Phase = PhasePlaying
	r.CurrentPlayerIndex = 0
	r.Pending = nil
	r.ReceivingPlayerIndex = -1
	r.Loser = nil
	r.Log = nil
	r.addLog(fmt.Sprintf("Game started with %d players", len(r.Players)), "")
	r.addLog(fmt.Sprintf("Turn of %s", r.Players[0].Name), "")

	r.journal(requesterID, "game_start", map[string]interface{}{"players": len(r.Players), "perPlayer": perPlayer})
	r.broadcastState()
	return nil
}

// SendCard removes a card from the current player's hand and starts a
// transaction: the card goes in flight toward targetIndex under claimedKind,
// which need not be the truth. The sender has seen their own card, so they
// join SeenBy immediately.
func (r *Room) SendCard(senderID uuid.UUID, cardIndex, targetIndex int, claimedKind CreatureKind) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhasePlaying {
		return ErrGameNotActive
	}
	senderIdx := r.playerIndexByID(senderID)
	if senderIdx == -1 {
		return ErrPlayerNotFound
	}
	if senderIdx != r.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	if r.Pending != nil {
		return ErrCardInFlight
	}
	sender := r.Players[senderIdx]
	if cardIndex < 0 || cardIndex >= len(sender.Hand) {
		return ErrInvalidCard
	}
	if targetIndex < 0 || targetIndex >= len(r.Players) || targetIndex == senderIdx {
		return ErrInvalidTarget
	}
	if _, ok := ParseKind(string(claimedKind)); !ok {
		return ErrInvalidClaim
	}

	card := sender.Hand[cardIndex]
	sender.Hand = append(sender.Hand[:cardIndex], sender.Hand[cardIndex+1:]...)

	r.Pending = &PendingCard{
		Card:          card,
		ClaimantIndex: senderIdx,
		ClaimedKind:   claimedKind,
		SeenBy:        []int{senderIdx},
	}
	r.ReceivingPlayerIndex = targetIndex

	// The claim is public; the truth is not.
	r.addLog(fmt.Sprintf("%s sends a card to %s, claiming it is a %s",
		sender.Name, r.Players[targetIndex].Name, claimedKind), "")

	r.journal(senderID, "card_sent", map[string]interface{}{
		"target": targetIndex, "claimed": string(claimedKind),
	})
	r.broadcastState()
	return nil
}

// Judge resolves the transaction. The receiver either believes or disbelieves
// the active claim; being right either way puts the card face up in front of
// the claimant, being wrong puts it in front of the judge. The round loser
// acts next unless a loss condition ends the game first.
func (r *Room) Judge(judgeID uuid.UUID, believes bool) (*JudgeResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhasePlaying {
		return nil, ErrGameNotActive
	}
	if r.Pending == nil {
		return nil, ErrNoPendingCard
	}
	judgeIdx := r.playerIndexByID(judgeID)
	if judgeIdx == -1 {
		return nil, ErrPlayerNotFound
	}
	if judgeIdx != r.ReceivingPlayerIndex {
		return nil, ErrNotYourTurn
	}

	pending := r.Pending
	isTruth := pending.Card.Kind == pending.ClaimedKind
	guessedCorrectly := believes == isTruth

	var loserIdx int
	if guessedCorrectly {
		loserIdx = pending.ClaimantIndex
	} else {
		loserIdx = judgeIdx
	}
	loser := r.Players[loserIdx]
	loser.FaceUp = append(loser.FaceUp, pending.Card)

	judge := r.Players[judgeIdx]
	verdict := "does not believe"
	if believes {
		verdict = "believes"
	}
	outcome := "guessed wrong!"
	if guessedCorrectly {
		outcome = "guessed right!"
	}
	r.addLog(fmt.Sprintf("%s %s - %s", judge.Name, verdict, outcome), "")
	r.addLog(fmt.Sprintf("The card was a %s, placed face up in front of %s",
		pending.Card.Kind, loser.Name), "result")

	r.Pending = nil
	r.ReceivingPlayerIndex = -1

	result := &JudgeResult{
		GuessedCorrectly: guessedCorrectly,
		ActualKind:       pending.Card.Kind,
		ActualCard:       pending.Card,
		LoserIndex:       loserIdx,
		LoserName:        loser.Name,
	}
	r.journal(judgeID, "card_judged", map[string]interface{}{
		"believes": believes, "correct": guessedCorrectly, "loser": loserIdx,
	})

	// The face-up scan outranks the empty-hand rule: a single resolution can
	// trigger both, and the face-up loss is the one reported.
	if loss := r.scanFaceUpLoss(); loss != nil {
		r.endGame(loss)
	} else if len(loser.Hand) == 0 {
		r.endGame(&LossRecord{
			PlayerIndex: loserIdx,
			Reason:      "no cards in hand on their turn",
		})
	} else {
		r.CurrentPlayerIndex = loserIdx
		r.addLog(fmt.Sprintf("Turn of %s", loser.Name), "")
	}

	r.fireEvent(Event{Type: EventGuessResult, Result: result})
	r.broadcastState()
	return result, nil
}

// ViewCard reveals the in-flight card to the current receiver so they can
// pass it on instead of judging. Viewing is recorded in SeenBy (idempotent),
// which permanently removes the viewer from the pool of pass targets.
func (r *Room) ViewCard(holderID uuid.UUID) (*ViewResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhasePlaying {
		return nil, ErrGameNotActive
	}
	if r.Pending == nil {
		return nil, ErrNoPendingCard
	}
	holderIdx := r.playerIndexByID(holderID)
	if holderIdx == -1 {
		return nil, ErrPlayerNotFound
	}
	if holderIdx != r.ReceivingPlayerIndex {
		return nil, ErrNotYourTurn
	}

	if !seenContains(r.Pending.SeenBy, holderIdx) {
		r.Pending.SeenBy = append(r.Pending.SeenBy, holderIdx)
		r.journal(holderID, "card_viewed", nil)
		r.broadcastState() // SeenBy is public
	}

	res := &ViewResult{Card: r.Pending.Card, AvailableTargets: []TargetOption{}}
	for i, p := range r.Players {
		if !seenContains(r.Pending.SeenBy, i) {
			res.AvailableTargets = append(res.AvailableTargets, TargetOption{Index: i, Name: p.Name})
		}
	}
	return res, nil
}

// PassCard forwards the viewed card to a player who has not yet seen it,
// under a fresh claim. The passer becomes the claimant and can no longer be
// offered the card. Nothing is mutated on a rejected pass.
func (r *Room) PassCard(holderID uuid.UUID, targetIndex int, claimedKind CreatureKind) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhasePlaying {
		return ErrGameNotActive
	}
	if r.Pending == nil {
		return ErrNoPendingCard
	}
	holderIdx := r.playerIndexByID(holderID)
	if holderIdx == -1 {
		return ErrPlayerNotFound
	}
	if holderIdx != r.ReceivingPlayerIndex {
		return ErrNotYourTurn
	}
	if _, ok := ParseKind(string(claimedKind)); !ok {
		return ErrInvalidClaim
	}
	if targetIndex < 0 || targetIndex >= len(r.Players) {
		return ErrInvalidTarget
	}
	// The holder counts as having seen the card even if they skipped the
	// explicit view, so a self-pass is always rejected here.
	if targetIndex == holderIdx || seenContains(r.Pending.SeenBy, targetIndex) {
		return ErrTargetSeen
	}

	if !seenContains(r.Pending.SeenBy, holderIdx) {
		r.Pending.SeenBy = append(r.Pending.SeenBy, holderIdx)
	}
	r.Pending.ClaimantIndex = holderIdx
	r.Pending.ClaimedKind = claimedKind
	r.ReceivingPlayerIndex = targetIndex

	holder := r.Players[holderIdx]
	r.addLog(fmt.Sprintf("%s looks at the card and passes it to %s, claiming it is a %s",
		holder.Name, r.Players[targetIndex].Name, claimedKind), "")

	r.journal(holderID, "card_passed", map[string]interface{}{
		"target": targetIndex, "claimed": string(claimedKind),
	})
	r.broadcastState()
	return nil
}

// scanFaceUpLoss checks every player for MaxFaceUpBeforeLose face-up cards of
// one kind. Players are scanned in seat order and kinds in their fixed order,
// so the first match is deterministic. Assumes lock is held.
func (r *Room) scanFaceUpLoss() *LossRecord {
	for i, p := range r.Players {
		counts := make(map[CreatureKind]int, len(Creatures))
		for _, c := range p.FaceUp {
			counts[c.Kind]++
		}
		for _, kind := range Creatures {
			if counts[kind] >= MaxFaceUpBeforeLose {
				return &LossRecord{
					PlayerIndex: i,
					Kind:        kind,
					Reason: fmt.Sprintf("collected %d face-up %s cards",
						MaxFaceUpBeforeLose, kind),
				}
			}
		}
	}
	return nil
}

// endGame finishes the room. Assumes lock is held.
func (r *Room) endGame(loss *LossRecord) {
	r.Phase = PhaseGameOver
	r.Loser = loss
	r.addLog(fmt.Sprintf("Game over! %s loses - %s",
		r.Players[loss.PlayerIndex].Name, loss.Reason), "lose")
	r.journal(r.Players[loss.PlayerIndex].ID, "game_over", map[string]interface{}{
		"loser": loss.PlayerIndex, "reason": loss.Reason,
	})
}

func seenContains(seen []int, idx int) bool {
	for _, s := range seen {
		if s == idx {
			return true
		}
	}
	return false
}
