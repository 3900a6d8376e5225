// Package registry lists the services whose descriptors feed the swagger
// cache: the built-in system services followed by everything persisted.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/logging"
	"github.com/dreamfactory/dspdocs/internal/store"
)

// Accessor caches the service list after the first successful load.
type Accessor struct {
	reader store.ServiceReader
	log    *logging.Logger

	mu     sync.RWMutex
	cached []domain.ServiceDescriptor
	loaded bool
	hits   int64
	misses int64
}

// New creates an accessor over a store reader.
func New(reader store.ServiceReader, log *logging.Logger) *Accessor {
	if log == nil {
		log = logging.Discard()
	}
	return &Accessor{reader: reader, log: log}
}

// List returns built-ins first (user, system) then persisted services in
// ascending api-name order. Rows that shadow a built-in name are skipped.
func (a *Accessor) List(ctx context.Context) ([]domain.ServiceDescriptor, error) {
	a.mu.RLock()
	if a.loaded {
		out := clone(a.cached)
		a.mu.RUnlock()
		a.mu.Lock()
		a.hits++
		a.mu.Unlock()
		return out, nil
	}
	a.mu.RUnlock()

	persisted, err := a.reader.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	list := domain.BuiltInServices()
	for _, svc := range persisted {
		svc.APIName = domain.NormalizeAPIName(svc.APIName)
		if domain.IsBuiltIn(svc.APIName) {
			a.log.Warn("service_shadows_builtin", map[string]interface{}{
				"api_name": svc.APIName,
				"type_id":  int(svc.TypeID),
			}, nil)
			continue
		}
		list = append(list, svc)
	}

	a.mu.Lock()
	a.cached = list
	a.loaded = true
	a.misses++
	a.mu.Unlock()

	return clone(list), nil
}

// Invalidate drops the cached list so the next List reloads from the store.
func (a *Accessor) Invalidate() {
	a.mu.Lock()
	a.cached = nil
	a.loaded = false
	a.mu.Unlock()
}

// Stats holds accessor cache statistics.
type Stats struct {
	Loaded bool  `json:"loaded"`
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns cache statistics.
func (a *Accessor) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{Loaded: a.loaded, Size: len(a.cached), Hits: a.hits, Misses: a.misses}
}

func clone(in []domain.ServiceDescriptor) []domain.ServiceDescriptor {
	out := make([]domain.ServiceDescriptor, len(in))
	copy(out, in)
	return out
}
