// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"
	"time"
)

// CreatureKind identifies one of the eight creature types in the deck.
type CreatureKind string

const (
	KindCockroach CreatureKind = "cockroach"
	KindScorpion  CreatureKind = "scorpion"
	KindBat       CreatureKind = "bat"
	KindRat       CreatureKind = "rat"
	KindFrog      CreatureKind = "frog"
	KindFly       CreatureKind = "fly"
	KindSpider    CreatureKind = "spider"
	KindStinkbug  CreatureKind = "stinkbug"
)

// Creatures lists every kind in a fixed order. Loss detection and claim
// validation iterate this slice, so the order must stay stable.
var Creatures = []CreatureKind{
	KindCockroach, KindScorpion, KindBat, KindRat,
	KindFrog, KindFly, KindSpider, KindStinkbug,
}

const (
	// CardsPerCreature copies of each kind make up the full deck.
	CardsPerCreature = 8
	// DeckSize is the total card count before dealing: 8 kinds x 8 copies.
	DeckSize = CardsPerCreature * 8

	// MaxFaceUpBeforeLose is the face-up count of one kind that loses the game.
	MaxFaceUpBeforeLose = 4

	MinPlayers = 4
	MaxPlayers = 10
)

// Card is a single immutable card. UID is stable for the lifetime of a deck
// and is used for equality and debugging, never shown to non-viewers.
type Card struct {
	Kind CreatureKind `json:"kind"`
	UID  string       `json:"uid"`
}

// ParseKind validates a client-submitted creature name.
func ParseKind(s string) (CreatureKind, bool) {
	for _, k := range Creatures {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// BuildDeck produces the full 64-card deck in kind order, 8 copies per kind,
// each tagged with a stable instance id like "bat-3".
func BuildDeck() []Card {
	deck := make([]Card, 0, len(Creatures)*CardsPerCreature)
	for _, kind := range Creatures {
		for i := 0; i < CardsPerCreature; i++ {
			deck = append(deck, Card{Kind: kind, UID: fmt.Sprintf("%s-%d", kind, i)})
		}
	}
	return deck
}

// ShuffleDeck returns a uniformly shuffled copy of cards. The input slice is
// never mutated; callers may keep references to it.
func ShuffleDeck(cards []Card) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
