// internal/game/errors.go
package game

// ErrorKind classifies engine errors for the transport layer. Every kind is
// local and non-fatal: the offending request is rejected, room state is
// untouched, and only the acting client sees the failure.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindAuthorization ErrorKind = "authorization"
)

// Error is a rejected request. Code is a stable machine-readable identifier
// suitable for the wire; the message is for humans.
type Error struct {
	Kind ErrorKind
	Code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Sentinel errors, one per precondition the engine enforces. Callers compare
// with errors.Is.
var (
	ErrRoomNotFound   = &Error{KindNotFound, "room_not_found", "room not found"}
	ErrPlayerNotFound = &Error{KindNotFound, "player_not_found", "player not found in room"}

	ErrGameStarted      = &Error{KindValidation, "game_started", "game has already started"}
	ErrRoomFull         = &Error{KindValidation, "room_full", "room is full"}
	ErrNotEnoughPlayers = &Error{KindValidation, "not_enough_players", "not enough players to start"}
	ErrGameNotActive    = &Error{KindValidation, "game_not_active", "game is not in progress"}
	ErrNotYourTurn      = &Error{KindValidation, "not_your_turn", "it is not your turn"}
	ErrCardInFlight     = &Error{KindValidation, "transaction_in_progress", "a card is already being passed"}
	ErrInvalidCard      = &Error{KindValidation, "invalid_card", "no such card in hand"}
	ErrInvalidTarget    = &Error{KindValidation, "invalid_target", "invalid target player"}
	ErrInvalidClaim     = &Error{KindValidation, "invalid_claim", "claimed creature is not a valid kind"}
	ErrNoPendingCard    = &Error{KindValidation, "no_pending_transaction", "no card is being passed"}
	ErrTargetSeen       = &Error{KindValidation, "target_already_seen", "target player has already seen the card"}

	ErrNotHost = &Error{KindAuthorization, "not_host", "only the host may do that"}
)
