// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejoinTokenRoundTrip(t *testing.T) {
	Init()

	playerID := uuid.New().String()
	token, err := CreateRejoinToken("ABCD", playerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	roomCode, gotPlayer, err := VerifyRejoinToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", roomCode)
	assert.Equal(t, playerID, gotPlayer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	Init()

	_, _, err := VerifyRejoinToken("not-a-token")
	require.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateRejoinToken("ABCD", uuid.New().String())
	require.NoError(t, err)

	// A process restart rotates the key pair; stale tokens must fail.
	Init()
	_, _, err = VerifyRejoinToken(token)
	require.Error(t, err)
}
