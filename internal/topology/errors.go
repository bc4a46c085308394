package topology

import "errors"

var (
	// ErrInvalidDocument is returned when a topology fails validation.
	ErrInvalidDocument = errors.New("topology: invalid document")

	// ErrEmpty is returned when a topology defines no homes.
	ErrEmpty = errors.New("topology: no homes defined")
)
