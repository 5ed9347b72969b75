package session

import "errors"

var (
	// ErrCredential and ErrTransport are terminal for a join attempt;
	// no partial state is retained.
	ErrCredential = errors.New("credential acquisition failed")
	ErrTransport  = errors.New("transport connection failed")

	ErrAlreadyJoined = errors.New("already in a session")
	ErrNotJoined     = errors.New("not in a session")
	// ErrJoinAborted is returned when leave() lands while a join is
	// still in flight; the join backs out instead of committing.
	ErrJoinAborted = errors.New("join aborted")

	// ErrShareDenied is the soft local denial when another participant
	// already holds the screen-share slot.
	ErrShareDenied = errors.New("screen share slot is taken")

	ErrNotCreator = errors.New("only the room creator can end the room")
)
