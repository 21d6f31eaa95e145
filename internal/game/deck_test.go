// internal/game/deck_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeckComposition(t *testing.T) {
	deck := BuildDeck()
	require.Len(t, deck, DeckSize)

	counts := make(map[CreatureKind]int)
	uids := make(map[string]bool)
	for _, c := range deck {
		counts[c.Kind]++
		assert.False(t, uids[c.UID], "duplicate uid %s", c.UID)
		uids[c.UID] = true
	}
	require.Len(t, counts, len(Creatures))
	for _, kind := range Creatures {
		assert.Equal(t, CardsPerCreature, counts[kind], "kind %s", kind)
	}
}

func TestShuffleDeckIsAPermutation(t *testing.T) {
	original := BuildDeck()
	shuffled := ShuffleDeck(original)

	require.Len(t, shuffled, len(original))
	assert.ElementsMatch(t, original, shuffled)

	// The input must not be touched.
	assert.Equal(t, BuildDeck(), original)
}

func TestParseKind(t *testing.T) {
	for _, kind := range Creatures {
		parsed, ok := ParseKind(string(kind))
		require.True(t, ok)
		assert.Equal(t, kind, parsed)
	}
	for _, bad := range []string{"", "dragon", "Cockroach", "COCKROACH"} {
		_, ok := ParseKind(bad)
		assert.False(t, ok, "%q should not parse", bad)
	}
}
