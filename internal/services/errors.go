package services

import "errors"

// User directory errors.
var (
	ErrDuplicate    = errors.New("username already exists")
	ErrProtected    = errors.New("user is protected from deletion")
	ErrNotFound     = errors.New("user not found")
	ErrUnauthorized = errors.New("user is not authorized to use the system")
)

// Vehicle state machine errors.
var (
	ErrAlreadyOn      = errors.New("car has already been started")
	ErrAlreadyOff     = errors.New("car is not on")
	ErrAlreadyStopped = errors.New("car is already stopped")
	ErrNotRunning     = errors.New("car is not running")
	ErrInvalidTarget  = errors.New("invalid target lane")
)

// ErrInvalidEvent is returned when a sensor event carries a code or value
// outside the catalog tables.
var ErrInvalidEvent = errors.New("invalid sensor event")

// IsSessionFatal reports whether err must end the operator's session
// instead of being retried.
func IsSessionFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
