package store

import (
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrNotFound indicates the requested service does not exist.
	ErrNotFound = errors.New("service not found")

	// ErrAlreadyExists indicates a service with the same api name already exists.
	ErrAlreadyExists = errors.New("service already exists")

	// ErrConnection indicates a connection problem with the backing store.
	ErrConnection = errors.New("store connection error")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")

	// ErrInvalidName indicates the provided api name is invalid.
	ErrInvalidName = errors.New("invalid api name")
)

// NotFoundError wraps ErrNotFound with entity details.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a typed not found error.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// connErr tags a driver error as a connection problem while keeping the
// driver error reachable through errors.Is/As.
func connErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrConnection, err))
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}
