package swagger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/eventbus"
	"github.com/dreamfactory/dspdocs/internal/metrics"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu            sync.Mutex
	svcs          []domain.ServiceDescriptor
	err           error
	lists         int
	invalidations int
}

func (f *fakeRegistry) List(ctx context.Context) ([]domain.ServiceDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	out := append(domain.BuiltInServices(), f.svcs...)
	return out, nil
}

func (f *fakeRegistry) Invalidate() {
	f.mu.Lock()
	f.invalidations++
	f.mu.Unlock()
}

type fakeFinder map[string][]string

func (f fakeFinder) Find(pathKey, method, eventName string) []string {
	return f[pathKey+"|"+method+"|"+eventName]
}

type testEnv struct {
	root        string
	cacheDir    string
	customDir   string
	descriptors string
	registry    *fakeRegistry
	bus         *eventbus.Bus
	metrics     *metrics.Metrics
	manager     *Manager
	topics      []string
}

func newTestEnv(t *testing.T, svcs ...domain.ServiceDescriptor) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:        root,
		cacheDir:    filepath.Join(root, "swagger", "cache"),
		customDir:   filepath.Join(root, "swagger", "custom"),
		descriptors: filepath.Join(root, "descriptors"),
		registry:    &fakeRegistry{svcs: svcs},
		bus:         eventbus.New(),
		metrics:     metrics.New(),
	}
	require.NoError(t, os.MkdirAll(env.customDir, 0755))
	require.NoError(t, os.MkdirAll(env.descriptors, 0755))

	env.bus.Subscribe("*", func(ctx context.Context, e eventbus.Event) {
		env.topics = append(env.topics, e.Topic)
	})

	loader := NewLoader(LoaderConfig{
		DescriptorDir: env.descriptors,
		CustomDir:     env.customDir,
		APIVersion:    "1.0",
		BasePath:      "http://localhost/rest",
	}, nil)

	env.manager = NewManager(
		Config{CacheDir: env.cacheDir, CustomDir: env.customDir},
		env.registry, loader, NewParser(nil),
		WithBus(env.bus),
		WithMetrics(env.metrics),
	)
	return env
}

func (e *testEnv) writeCustom(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.customDir, name), []byte(content), 0644))
}

func (e *testEnv) writeDescriptor(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.descriptors, name), []byte(content), 0644))
}

func (e *testEnv) readCache(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.cacheDir, name))
	require.NoError(t, err)
	return data
}

type fakeContext struct {
	apiName, resource, path, serviceName string
}

func (f fakeContext) APIName() string      { return f.apiName }
func (f fakeContext) Resource() string     { return f.resource }
func (f fakeContext) ResourcePath() string { return f.path }
func (f fakeContext) ServiceName() string  { return f.serviceName }

type otherContext struct{ fakeContext }
