package memhost

import "errors"

var (
	// ErrInvalidValue is returned when a value cannot be represented in a
	// characteristic's format.
	ErrInvalidValue = errors.New("memhost: invalid value for characteristic format")

	// ErrReadOnly is returned when writing a characteristic that has no
	// write permission.
	ErrReadOnly = errors.New("memhost: characteristic is read-only")

	// ErrAccessoryNotFound is returned when an accessory ID is unknown.
	ErrAccessoryNotFound = errors.New("memhost: accessory not found")

	// ErrCharacteristicNotFound is returned when an accessory has no
	// characteristic with the requested type.
	ErrCharacteristicNotFound = errors.New("memhost: characteristic not found")
)
