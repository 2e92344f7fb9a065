package room

import "errors"

// Error kinds. Every error returned by a Room operation unwraps to one of
// these, so callers can classify with errors.Is without matching messages.
var (
	// ErrUnauthorized is the kind for host-only actions attempted by others.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrIllegalState is the kind for actions invalid in the current status.
	ErrIllegalState = errors.New("illegal state")
	// ErrConflict is the kind for a join under a name already in use.
	ErrConflict = errors.New("conflict")
)

var (
	ErrNotHostStart = newError(ErrUnauthorized, "Only host can start the game")
	ErrNotHostDraw  = newError(ErrUnauthorized, "Only host can draw numbers")
	ErrNotStarted   = newError(ErrIllegalState, "Game not started")
	ErrFinished     = newError(ErrIllegalState, "Game already finished")
	ErrRoomClosed   = newError(ErrIllegalState, "Room closed")
	ErrNameTaken    = newError(ErrConflict, "Name already taken in this room")
	ErrInvalidClaim = newError(ErrIllegalState, "Bingo claim rejected")
)

type opError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &opError{kind: kind, msg: msg}
}

func (e *opError) Error() string { return e.msg }

func (e *opError) Unwrap() error { return e.kind }
