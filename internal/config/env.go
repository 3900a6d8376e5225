// Package config provides centralized configuration management.
// Every DSP_* variable is read here and nowhere else.
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// DSPEnv holds all dspdocs environment variables.
type DSPEnv struct {
	// StoragePath is the platform storage root (DSP_STORAGE_PATH)
	StoragePath string

	// SwaggerPath overrides the swagger root directory (DSP_SWAGGER_PATH)
	SwaggerPath string

	// ScriptPath overrides the server-side script directory (DSP_SCRIPT_PATH)
	ScriptPath string

	// DescriptorPath is an optional directory of generator descriptors (DSP_DESCRIPTOR_PATH)
	DescriptorPath string

	// RegistryDSN is the service registry connection string (DSP_REGISTRY_DSN)
	RegistryDSN string

	// APIVersion is stamped into every generated descriptor (DSP_API_VERSION)
	APIVersion string

	// BasePath is the public REST base URL (DSP_BASE_PATH)
	BasePath string

	// ListenAddr is the HTTP listen address for serve (DSP_LISTEN_ADDR)
	ListenAddr string

	// LogLevel is the minimum log level: debug, info, warn, error (DSP_LOG_LEVEL)
	LogLevel string
}

var (
	env     *DSPEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *DSPEnv {
	envOnce.Do(func() {
		env = &DSPEnv{
			StoragePath:    os.Getenv("DSP_STORAGE_PATH"),
			SwaggerPath:    os.Getenv("DSP_SWAGGER_PATH"),
			ScriptPath:     os.Getenv("DSP_SCRIPT_PATH"),
			DescriptorPath: os.Getenv("DSP_DESCRIPTOR_PATH"),
			RegistryDSN:    os.Getenv("DSP_REGISTRY_DSN"),
			APIVersion:     getEnvDefault("DSP_API_VERSION", "1.0"),
			BasePath:       getEnvDefault("DSP_BASE_PATH", "http://localhost/rest"),
			ListenAddr:     getEnvDefault("DSP_LISTEN_ADDR", ":8080"),
			LogLevel:       getEnvDefault("DSP_LOG_LEVEL", "info"),
		}
	})
	return env
}

// ResetEnv resets the cached environment and paths (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
	pathsOnce = sync.Once{}
	paths = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Paths holds standard dspdocs directory paths.
type Paths struct {
	// Storage is the platform storage root (~/.dsp)
	Storage string

	// Swagger is the swagger root (~/.dsp/swagger)
	Swagger string

	// Cache holds the generated swagger and event artifacts (~/.dsp/swagger/cache)
	Cache string

	// Custom holds hand-written service descriptors (~/.dsp/swagger/custom)
	Custom string

	// Scripts holds server-side event scripts (~/.dsp/private/scripts)
	Scripts string

	// Descriptors is an optional generator descriptor directory
	Descriptors string

	// Registry is the default SQLite registry file (~/.dsp/dsp.db)
	Registry string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		e := Env()

		storage := e.StoragePath
		if storage == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			storage = filepath.Join(home, ".dsp")
		}

		swagger := e.SwaggerPath
		if swagger == "" {
			swagger = filepath.Join(storage, "swagger")
		}

		scripts := e.ScriptPath
		if scripts == "" {
			scripts = filepath.Join(storage, "private", "scripts")
		}

		paths = &Paths{
			Storage:     storage,
			Swagger:     swagger,
			Cache:       filepath.Join(swagger, "cache"),
			Custom:      filepath.Join(swagger, "custom"),
			Scripts:     scripts,
			Descriptors: e.DescriptorPath,
			Registry:    filepath.Join(storage, "dsp.db"),
		}
	})
	return paths
}

// RegistryDSN returns the configured registry DSN, defaulting to the
// SQLite file under the storage root.
func RegistryDSN() string {
	if dsn := Env().RegistryDSN; dsn != "" {
		return dsn
	}
	return GetPaths().Registry
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
