// internal/uno/errors.go
package uno

import "errors"

// Rejection errors. Each one rejects a single action, never mutates room
// state, and is reported only to the acting identity.
var (
	ErrNotYourTurn         = errors.New("not your turn")
	ErrCardNotInHand       = errors.New("card not in your hand")
	ErrCardNotPlayable     = errors.New("card cannot be played")
	ErrColorChoiceRequired = errors.New("must choose a color for a wild card")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrGameNotInProgress   = errors.New("no game in progress")
	ErrInsufficientPlayers = errors.New("need at least 2 players to start")
	ErrNotHost             = errors.New("only the host can do that")
	ErrNothingToCatch      = errors.New("cannot catch this player")
	ErrCannotCall          = errors.New("can only call with one card remaining")
	ErrNotInRoom           = errors.New("you are not in a room")

	// ErrDeckExhausted means a reshuffle was attempted with at most one
	// discard card left. Under the card-conservation invariant this should
	// not occur; callers log it distinctly from ordinary rejections, but
	// it is still recovered, never fatal.
	ErrDeckExhausted = errors.New("no cards left to draw")
)
