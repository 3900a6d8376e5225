package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu    sync.Mutex
	svcs  []domain.ServiceDescriptor
	err   error
	calls int
}

func (f *fakeReader) ListServices(ctx context.Context) ([]domain.ServiceDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ServiceDescriptor, len(f.svcs))
	copy(out, f.svcs)
	return out, nil
}

func names(svcs []domain.ServiceDescriptor) []string {
	out := make([]string, len(svcs))
	for i, s := range svcs {
		out[i] = s.APIName
	}
	return out
}

func TestListBuiltInsOnly(t *testing.T) {
	a := New(&fakeReader{}, nil)

	got, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "system"}, names(got))
	assert.Equal(t, "User Login", got[0].Description)
	assert.Equal(t, "System Configuration", got[1].Description)
}

func TestListBuiltInsFirst(t *testing.T) {
	reader := &fakeReader{svcs: []domain.ServiceDescriptor{
		{APIName: "db", TypeID: domain.TypeLocalSQLDB},
		{APIName: "files", TypeID: domain.TypeLocalFileStorage},
	}}
	a := New(reader, nil)

	got, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "system", "db", "files"}, names(got))
}

func TestListSkipsShadowedBuiltIn(t *testing.T) {
	reader := &fakeReader{svcs: []domain.ServiceDescriptor{
		{APIName: "db", TypeID: domain.TypeLocalSQLDB},
		{APIName: "System", TypeID: domain.TypeRemoteWeb},
	}}
	a := New(reader, nil)

	got, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "system", "db"}, names(got))
	assert.Equal(t, domain.TypeSystem, got[1].TypeID)
}

func TestListCachesUntilInvalidate(t *testing.T) {
	reader := &fakeReader{svcs: []domain.ServiceDescriptor{{APIName: "db"}}}
	a := New(reader, nil)
	ctx := context.Background()

	_, err := a.List(ctx)
	require.NoError(t, err)
	reader.svcs = append(reader.svcs, domain.ServiceDescriptor{APIName: "mail"})

	got, err := a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "system", "db"}, names(got))
	assert.Equal(t, 1, reader.calls)

	a.Invalidate()
	got, err = a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "system", "db", "mail"}, names(got))
	assert.Equal(t, 2, reader.calls)

	stats := a.Stats()
	assert.True(t, stats.Loaded)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestListReturnsCopy(t *testing.T) {
	a := New(&fakeReader{}, nil)
	got, err := a.List(context.Background())
	require.NoError(t, err)
	got[0].APIName = "mutated"

	again, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user", again[0].APIName)
}

func TestListStoreError(t *testing.T) {
	reader := &fakeReader{err: store.ErrConnection}
	a := New(reader, nil)

	_, err := a.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrConnection))
	assert.False(t, a.Stats().Loaded)

	reader.err = nil
	got, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
