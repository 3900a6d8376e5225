// Package service constructs request-scoped service contexts from registry
// entries. Constructors are registered per service type; system services are
// further keyed by api name.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/swagger"
)

// Service is a registered service bound to (optionally) one request.
type Service interface {
	swagger.ServiceContext
	Descriptor() domain.ServiceDescriptor
	// Bind returns a copy of the service scoped to requestPath.
	Bind(requestPath string) Service
}

// Constructor builds a service for a registry entry.
type Constructor func(desc domain.ServiceDescriptor) Service

// Factory maps service types to constructors.
type Factory struct {
	mu       sync.RWMutex
	byType   map[domain.ServiceType]Constructor
	bySystem map[string]Constructor
}

// NewFactory returns a factory with every known service type registered,
// plus the built-in system, user and api_docs services.
func NewFactory() *Factory {
	f := &Factory{
		byType:   make(map[domain.ServiceType]Constructor),
		bySystem: make(map[string]Constructor),
	}
	for t := domain.TypeSystem; t <= domain.TypeLocalPortal; t++ {
		if t.Known() && t != domain.TypeSystem {
			f.Register(t, NewBase)
		}
	}
	f.RegisterSystem("system", NewSystemManager)
	f.RegisterSystem("user", NewUserManager)
	f.RegisterSystem("api_docs", NewDocsManager)
	return f
}

// Register sets the constructor for a service type.
func (f *Factory) Register(t domain.ServiceType, c Constructor) {
	f.mu.Lock()
	f.byType[t] = c
	f.mu.Unlock()
}

// RegisterSystem sets the constructor for a system service api name.
func (f *Factory) RegisterSystem(apiName string, c Constructor) {
	f.mu.Lock()
	f.bySystem[domain.NormalizeAPIName(apiName)] = c
	f.mu.Unlock()
}

// New builds the service for desc. Types with no constructor yield
// *swagger.InvalidServiceTypeError.
func (f *Factory) New(desc domain.ServiceDescriptor) (Service, error) {
	desc.APIName = domain.NormalizeAPIName(desc.APIName)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if desc.TypeID == domain.TypeSystem {
		if c, ok := f.bySystem[desc.APIName]; ok {
			return c(desc), nil
		}
		return nil, &swagger.InvalidServiceTypeError{TypeID: desc.TypeID}
	}

	c, ok := f.byType[desc.TypeID]
	if !ok {
		return nil, &swagger.InvalidServiceTypeError{TypeID: desc.TypeID}
	}
	return c(desc), nil
}

// ForRequest builds the service for desc bound to requestPath.
func (f *Factory) ForRequest(desc domain.ServiceDescriptor, requestPath string) (Service, error) {
	svc, err := f.New(desc)
	if err != nil {
		return nil, err
	}
	return svc.Bind(requestPath), nil
}

// ErrUnknownService indicates a request path names no registered service.
var ErrUnknownService = errors.New("unknown service")

// Lister lists registered services.
type Lister interface {
	List(ctx context.Context) ([]domain.ServiceDescriptor, error)
}

// Resolve finds the registered service addressed by requestPath and binds
// it to that path.
func (f *Factory) Resolve(ctx context.Context, lister Lister, requestPath string) (Service, error) {
	apiName := APINameFromPath(requestPath)
	if apiName == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnknownService)
	}

	services, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, desc := range services {
		if desc.APIName == apiName {
			return f.ForRequest(desc, requestPath)
		}
	}
	if apiName == "api_docs" {
		return f.ForRequest(domain.ServiceDescriptor{APIName: apiName, TypeID: domain.TypeSystem}, requestPath)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownService, apiName)
}

// APINameFromPath returns the api name addressed by a request path such as
// "/rest/db/todo".
func APINameFromPath(requestPath string) string {
	segs := splitPath(requestPath)
	if len(segs) == 0 {
		return ""
	}
	return domain.NormalizeAPIName(segs[0])
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "rest" {
		return nil
	}
	p = strings.TrimPrefix(p, "rest/")
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
