package registry

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrRoomNotFound is returned when the requested room code does not
	// name a live room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidCode is returned when a room code has the wrong length or
	// characters outside the code alphabet.
	ErrInvalidCode = errors.New("invalid room code")
)
