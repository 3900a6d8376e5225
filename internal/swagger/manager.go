// Package swagger builds and serves the API documentation cache: per-service
// swagger 1.2 descriptors, the combined resource listing, the event map that
// routes requests to event names, and the inverted event cube.
package swagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/eventbus"
	"github.com/dreamfactory/dspdocs/internal/logging"
	"github.com/dreamfactory/dspdocs/internal/metrics"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"
)

// Cache artifact names under the cache directory.
const (
	CombinedFile = "_.json"
	EventsFile   = "_events.json"
	CubeFile     = "_events.cubed.json"
)

// Registry supplies the services to document.
type Registry interface {
	List(ctx context.Context) ([]domain.ServiceDescriptor, error)
	Invalidate()
}

// Config locates the cache and custom directories.
type Config struct {
	CacheDir  string
	CustomDir string
}

// Manager owns the cache files and the in-memory event map and cube.
// Construct one per process and share it.
type Manager struct {
	cfg      Config
	registry Registry
	loader   *Loader
	parser   *Parser
	bus      *eventbus.Bus
	log      *logging.Logger
	metrics  *metrics.Metrics

	group singleflight.Group

	mu      sync.RWMutex
	events  EventMap
	cube    Cube
	lookups map[lookupKey]bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithBus sets the notification bus.
func WithBus(b *eventbus.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// NewManager creates a cache manager.
func NewManager(cfg Config, registry Registry, loader *Loader, parser *Parser, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		registry: registry,
		loader:   loader,
		parser:   parser,
		log:      logging.Discard(),
		metrics:  metrics.Global(),
		lookups:  make(map[lookupKey]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type serviceSummary struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Rebuild regenerates every cache artifact and returns the combined listing.
// Concurrent calls share one build.
func (m *Manager) Rebuild(ctx context.Context) (json.RawMessage, error) {
	v, err, _ := m.group.Do("rebuild", func() (interface{}, error) {
		return m.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (m *Manager) rebuild(ctx context.Context) (json.RawMessage, error) {
	start := time.Now()
	build := ulid.Make().String()
	log := m.log.WithBuild(build)
	log.Info("swagger_cache_building", map[string]interface{}{"cache_dir": m.cfg.CacheDir})
	if err := m.ensureDirs(); err != nil {
		log.Error("cache_dir_create_failed", nil, err)
	}

	services, err := m.registry.List(ctx)
	if err != nil {
		m.metrics.RecordRebuild(false, 0, 0, 0)
		log.Error("registry_unavailable", nil, err)
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	events := make(EventMap)
	cube := make(Cube)
	apis := make([]serviceSummary, 0, len(services))
	skipped := 0

	for _, svc := range services {
		if svc.APIName == "" {
			skipped++
			continue
		}
		desc, err := m.loader.Load(svc)
		if err != nil {
			skipped++
			fields := map[string]interface{}{"api_name": svc.APIName}
			if IsNotAvailable(err) {
				fields["reason"] = err.Error()
				log.Debug("service_skipped", fields)
			} else {
				log.Warn("service_skipped", fields, err)
			}
			continue
		}

		path := filepath.Join(m.cfg.CacheDir, svc.APIName+".json")
		if err := writeFileAtomic(path, desc.Raw); err != nil {
			log.Error("service_cache_write_failed", map[string]interface{}{"api_name": svc.APIName}, err)
			continue
		}

		description := svc.Description
		if description == "" {
			description = "Service"
		}
		apis = append(apis, serviceSummary{Path: "/" + svc.APIName, Description: description})

		svcEvents, svcCube := m.parser.Parse(svc.APIName, desc.Doc)
		if existing, ok := events[svc.APIName]; ok {
			for k, v := range svcEvents {
				existing[k] = v
			}
		} else {
			events[svc.APIName] = svcEvents
		}
		cube.merge(svcCube)
	}

	listing, err := m.loader.ResourceListing()
	if err != nil {
		m.metrics.RecordRebuild(false, 0, 0, 0)
		return nil, fmt.Errorf("load resource listing template: %w", err)
	}
	listing["apis"] = apis

	combined, err := encodeJSON(listing)
	if err != nil {
		m.metrics.RecordRebuild(false, 0, 0, 0)
		return nil, fmt.Errorf("encode combined listing: %w", err)
	}

	m.writeArtifact(log, CombinedFile, combined)
	if data, err := encodeJSON(events); err == nil {
		m.writeArtifact(log, EventsFile, data)
	}
	if data, err := encodeJSON(cube); err == nil {
		m.writeArtifact(log, CubeFile, data)
	}
	m.seedExample(log)

	m.mu.Lock()
	m.events = events
	m.cube = cube
	m.lookups = make(map[lookupKey]bool)
	m.mu.Unlock()

	m.metrics.RecordRebuild(true, len(apis), skipped, time.Since(start).Milliseconds())
	log.TimedEvent("swagger_cache_built", start, map[string]interface{}{
		"services": len(apis),
		"skipped":  skipped,
	})
	m.bus.Publish(ctx, eventbus.TopicCacheRebuilt, map[string]interface{}{
		"build":    build,
		"services": len(apis),
		"skipped":  skipped,
	})

	return json.RawMessage(combined), nil
}

func (m *Manager) writeArtifact(log *logging.Logger, name string, data []byte) {
	path := filepath.Join(m.cfg.CacheDir, name)
	if err := writeFileAtomic(path, data); err != nil {
		log.Error("cache_write_failed", map[string]interface{}{"file": name}, err)
	}
}

func (m *Manager) seedExample(log *logging.Logger) {
	if m.cfg.CustomDir == "" {
		return
	}
	path := filepath.Join(m.cfg.CustomDir, ExampleFileName)
	if fileExists(path) {
		return
	}
	if err := writeFileAtomic(path, ExampleTemplate()); err != nil {
		log.Warn("example_seed_failed", map[string]interface{}{"path": path}, err)
	}
}

// CombinedListing returns the cached resource listing, rebuilding once on
// a miss.
func (m *Manager) CombinedListing(ctx context.Context) (json.RawMessage, error) {
	return m.readOrRebuild(ctx, CombinedFile, "combined listing")
}

// ServiceListing returns one service's cached descriptor, rebuilding once
// on a miss.
func (m *Manager) ServiceListing(ctx context.Context, apiName string) (json.RawMessage, error) {
	name := domain.NormalizeAPIName(apiName)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return nil, cacheUnavailable(apiName)
	}
	return m.readOrRebuild(ctx, name+".json", name)
}

func (m *Manager) readOrRebuild(ctx context.Context, file, what string) (json.RawMessage, error) {
	path := filepath.Join(m.cfg.CacheDir, file)

	data, err := readFileRetry(path)
	if err == nil {
		m.metrics.RecordCacheRead(true)
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	m.metrics.RecordCacheRead(false)
	if _, err := m.Rebuild(ctx); err != nil {
		return nil, err
	}

	data, err = readFileRetry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cacheUnavailable(what)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ClearCache removes every file in the cache directory, drops in-memory
// state and the registry cache, and publishes cache.cleared. Files that
// cannot be removed are logged. Returns the number of files removed.
func (m *Manager) ClearCache(ctx context.Context) int {
	removed, failures := clearDir(m.cfg.CacheDir)
	for _, err := range failures {
		m.log.Warn("cache_file_delete_failed", nil, err)
	}

	m.mu.Lock()
	m.events = nil
	m.cube = nil
	m.lookups = make(map[lookupKey]bool)
	m.mu.Unlock()

	if m.registry != nil {
		m.registry.Invalidate()
	}

	m.metrics.RecordClear(len(failures))
	m.log.Info("swagger_cache_cleared", map[string]interface{}{
		"removed":  removed,
		"warnings": len(failures),
	})
	m.bus.Publish(ctx, eventbus.TopicCacheCleared, map[string]interface{}{
		"removed":  removed,
		"warnings": len(failures),
	})
	return removed
}

// EventMap returns the event map from memory, else the cache file, else a
// rebuild. It never fails: an unbuildable map is returned empty. The result
// is shared and must not be modified.
func (m *Manager) EventMap(ctx context.Context) EventMap {
	m.mu.RLock()
	events := m.events
	m.mu.RUnlock()
	if events != nil {
		return events
	}

	if loaded, ok := loadArtifact[EventMap](m, EventsFile); ok && len(loaded) > 0 {
		m.mu.Lock()
		if m.events == nil {
			m.events = loaded
		}
		events = m.events
		m.mu.Unlock()
		return events
	}

	if _, err := m.Rebuild(ctx); err != nil {
		m.log.Error("event_map_rebuild_failed", nil, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.events == nil {
		return EventMap{}
	}
	return m.events
}

// EventCube returns the event cube with the same fallbacks as EventMap.
func (m *Manager) EventCube(ctx context.Context) Cube {
	m.mu.RLock()
	cube := m.cube
	m.mu.RUnlock()
	if cube != nil {
		return cube
	}

	if loaded, ok := loadArtifact[Cube](m, CubeFile); ok && len(loaded) > 0 {
		m.mu.Lock()
		if m.cube == nil {
			m.cube = loaded
		}
		cube = m.cube
		m.mu.Unlock()
		return cube
	}

	if _, err := m.Rebuild(ctx); err != nil {
		m.log.Error("event_cube_rebuild_failed", nil, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cube == nil {
		return Cube{}
	}
	return m.cube
}

// loadArtifact decodes a cache file. Missing files are a silent miss;
// undecodable ones are logged as malformed.
func loadArtifact[T any](m *Manager, name string) (T, bool) {
	var out T
	path := filepath.Join(m.cfg.CacheDir, name)

	data, err := readFileRetry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn("cache_read_failed", map[string]interface{}{"file": name}, err)
		}
		return out, false
	}
	if len(data) == 0 {
		return out, false
	}

	if err := json.Unmarshal(data, &out); err != nil {
		m.metrics.RecordMalformed()
		m.log.Error("cache_file_malformed", map[string]interface{}{"file": name},
			fmt.Errorf("%w: %v", ErrMalformedCache, err))
		return out, false
	}
	return out, true
}

// CacheDir returns the cache directory.
func (m *Manager) CacheDir() string {
	return m.cfg.CacheDir
}

// ensureDirs creates the cache and custom directories.
func (m *Manager) ensureDirs() error {
	for _, dir := range []string{m.cfg.CacheDir, m.cfg.CustomDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &FileSystemError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return nil
}
