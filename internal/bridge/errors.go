package bridge

import "errors"

var (
	// ErrAckTimeout is returned when no acknowledgement arrives in time.
	ErrAckTimeout = errors.New("bridge: acknowledgement timeout")

	// ErrCommandFailed is returned when the device side rejects a command.
	ErrCommandFailed = errors.New("bridge: command failed")

	// ErrNotStarted is returned for writes before Start or after Stop.
	ErrNotStarted = errors.New("bridge: not started")

	// ErrStopped completes commands still pending when the bridge stops.
	ErrStopped = errors.New("bridge: stopped")
)
