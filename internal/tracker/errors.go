package tracker

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrWrongKind rejects an operation that does not apply to the entity's
	// kind, such as reporting a reset for a fixed-schedule entity.
	ErrWrongKind = errors.New("operation not supported for this entity kind")
	// ErrPersistenceUnavailable wraps load and save failures. The tracker
	// keeps running in memory.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrDeliveryFailed wraps sink failures. The entity stays armed.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// EntityError attaches the entity id and its kind to one of the sentinels.
type EntityError struct {
	ID   string
	Kind Kind
	Err  error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("entity %q: %v", e.ID, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }
