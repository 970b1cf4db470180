package model

import "errors"

var (
	// ErrNotFound is returned when an entity is required to exist and does not.
	ErrNotFound = errors.New("entity was not found")

	// ErrConflict is returned when a storage uniqueness constraint rejects a write.
	ErrConflict = errors.New("entity already exists")

	// ErrInvalidEvent is returned when an identity event misses fields required for its kind.
	ErrInvalidEvent = errors.New("invalid identity event")
)
