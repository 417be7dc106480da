package conquest

import "errors"

// Structural errors abort a submission without touching state and are
// surfaced to the caller. Rule violations never appear here: they resolve
// the action with a failed Outcome and still consume the turn.
var (
	ErrNotFound      = errors.New("game not found")
	ErrNoPlayers     = errors.New("no players in game")
	ErrInvalidTurn   = errors.New("invalid turn index")
	ErrNotYourTurn   = errors.New("not player's turn")
	ErrInvalidAction = errors.New("invalid action")
)
