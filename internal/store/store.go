// Package store persists the service registry consumed by the swagger cache.
package store

import (
	"context"

	"github.com/dreamfactory/dspdocs/internal/domain"
)

// Store is the minimal interface all stores must implement.
type Store interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}

// ServiceReader lists persisted services.
type ServiceReader interface {
	// ListServices returns every persisted service sorted by api name.
	ListServices(ctx context.Context) ([]domain.ServiceDescriptor, error)
}

// ServiceWriter registers and removes services.
type ServiceWriter interface {
	Register(ctx context.Context, svc domain.ServiceDescriptor) error
	Remove(ctx context.Context, apiName string) error
}

// ServiceStore combines read and write operations on the service table.
type ServiceStore interface {
	Store
	ServiceReader
	ServiceWriter
}
