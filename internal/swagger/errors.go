package swagger

import (
	"errors"
	"fmt"

	"github.com/dreamfactory/dspdocs/internal/domain"
)

// Common swagger cache errors.
var (
	// ErrNotAvailable indicates a service has no loadable descriptor.
	ErrNotAvailable = errors.New("descriptor not available")

	// ErrMalformedCache indicates a cache file failed to decode.
	ErrMalformedCache = errors.New("malformed cache file")

	// ErrRegistryUnavailable indicates the service list could not be read.
	ErrRegistryUnavailable = errors.New("service registry unavailable")

	// ErrCacheUnavailable indicates a cache file is still missing after a rebuild.
	ErrCacheUnavailable = errors.New("swagger cache unavailable")
)

// FileSystemError records a failed cache file operation.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("file system error during %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// InvalidServiceTypeError names a service type with no descriptor configuration.
type InvalidServiceTypeError struct {
	TypeID domain.ServiceType
}

func (e *InvalidServiceTypeError) Error() string {
	return fmt.Sprintf("invalid service type %d: no descriptor configuration", int(e.TypeID))
}

// cacheUnavailable wraps ErrCacheUnavailable with the missing artifact.
func cacheUnavailable(what string) error {
	return fmt.Errorf("%w: failed to create swagger cache file for %q", ErrCacheUnavailable, what)
}

// IsNotAvailable checks if an error is a not-available error.
func IsNotAvailable(err error) bool {
	return errors.Is(err, ErrNotAvailable)
}

// IsServerError reports whether err should surface as an HTTP 500.
func IsServerError(err error) bool {
	var fsErr *FileSystemError
	var typeErr *InvalidServiceTypeError
	return errors.Is(err, ErrCacheUnavailable) ||
		errors.Is(err, ErrRegistryUnavailable) ||
		errors.As(err, &fsErr) ||
		errors.As(err, &typeErr)
}
