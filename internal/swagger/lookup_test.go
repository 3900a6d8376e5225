package swagger

import (
	"context"
	"testing"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/stretchr/testify/assert"
)

func seedEvents(env *testEnv, events EventMap) {
	env.manager.mu.Lock()
	env.manager.events = events
	env.manager.lookups = make(map[lookupKey]bool)
	env.manager.mu.Unlock()
}

func TestFindEventSystemRole(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"system": {"system.role": {"get": {Event: []string{"system.role.read"}}}},
	})

	svc := fakeContext{apiName: "system", resource: "role", path: "system/role", serviceName: "system"}
	name, ok := env.manager.FindEvent(context.Background(), svc, "GET")
	assert.True(t, ok)
	assert.Equal(t, "system.role.read", name)
}

func TestFindEventNoMatch(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"system": {"system.role": {"get": {Event: []string{"system.role.read"}}}},
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		svc    ServiceContext
		method string
	}{
		{"unknown path", fakeContext{apiName: "system", path: "system/nothing"}, "get"},
		{"wrong method", fakeContext{apiName: "system", path: "system/role"}, "delete"},
		{"empty path", fakeContext{apiName: "system", path: "/rest/"}, "get"},
		{"nil service", nil, "get"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := env.manager.FindEvent(ctx, tt.svc, tt.method)
			assert.False(t, ok)
			assert.Empty(t, name)
		})
	}
}

func TestFindEventLiteralBeforeTemplated(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"db": {
			"db.{table_name}": {"get": {Event: []string{"db.{table_name}.select", "db.table_selected"}}},
			"db.todo":         {"get": {Event: []string{"db.todo.select"}}},
		},
	})
	ctx := context.Background()

	name, ok := env.manager.FindEvent(ctx, fakeContext{apiName: "db", resource: "todo", path: "/rest/db/todo"}, "GET")
	assert.True(t, ok)
	assert.Equal(t, "db.todo.select", name)

	name, ok = env.manager.FindEvent(ctx, fakeContext{apiName: "db", resource: "contacts", path: "/rest/db/contacts"}, "get")
	assert.True(t, ok)
	assert.Equal(t, "db.{table_name}.select", name, "first event of the templated key")
}

func TestFindEventResourceMacroFallback(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"{table_name}": {"contacts.{id}": {"patch": {Event: []string{"record.update"}}}},
	})

	svc := fakeContext{apiName: "db", resource: "contacts", path: "contacts/7", serviceName: "db"}
	name, ok := env.manager.FindEvent(context.Background(), svc, "PATCH")
	assert.True(t, ok)
	assert.Equal(t, "record.update", name)
}

func TestFindEventSystemPrefixRetry(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"system": {"config": {"get": {Event: []string{"system.config.read"}}}},
	})

	svc := fakeContext{apiName: "system", resource: "config", path: "/rest/system/config"}
	name, ok := env.manager.FindEvent(context.Background(), svc, "get")
	assert.True(t, ok)
	assert.Equal(t, "system.config.read", name)
}

func TestFindEventMultiSegmentPathParam(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"files": {
			"files.{container}":               {"get": {Event: []string{"files.container.read"}}},
			"files.{container}.{folder_path}": {"get": {Event: []string{"files.folder.read"}}},
		},
	})
	ctx := context.Background()

	name, ok := env.manager.FindEvent(ctx, fakeContext{apiName: "files", path: "files/docs/a/b/c"}, "get")
	assert.True(t, ok)
	assert.Equal(t, "files.folder.read", name)

	name, ok = env.manager.FindEvent(ctx, fakeContext{apiName: "files", path: "files/docs"}, "get")
	assert.True(t, ok)
	assert.Equal(t, "files.container.read", name)
}

func TestFindEventColonParam(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"app": {"app.:id": {"delete": {Event: []string{"app.deleted"}}}},
	})

	name, ok := env.manager.FindEvent(context.Background(), fakeContext{apiName: "app", path: "app/12"}, "DELETE")
	assert.True(t, ok)
	assert.Equal(t, "app.deleted", name)
}

func TestFindEventAgainstBuiltInDescriptors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := fakeContext{apiName: "system", resource: "role", path: "/rest/system/role/5", serviceName: "system"}
	name, ok := env.manager.FindEvent(ctx, svc, "GET")
	assert.True(t, ok)
	assert.Equal(t, "system.role.read", name)

	svc = fakeContext{apiName: "user", resource: "session", path: "/rest/user/session", serviceName: "system"}
	name, ok = env.manager.FindEvent(ctx, svc, "POST")
	assert.True(t, ok)
	assert.Equal(t, "user.session.create", name)
}

func TestFindEventResourceNamingAnotherService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := fakeContext{apiName: "system", resource: "user", path: "/rest/system/user", serviceName: "system"}
	name, ok := env.manager.FindEvent(ctx, svc, "GET")
	assert.True(t, ok)
	assert.Equal(t, "system.users.list", name)

	svc = fakeContext{apiName: "system", resource: "user", path: "/rest/system/user/3", serviceName: "system"}
	name, ok = env.manager.FindEvent(ctx, svc, "DELETE")
	assert.True(t, ok)
	assert.Equal(t, "system.user.delete", name)
}

func TestFindEventResourceUsedWhenServiceUnmapped(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"todo": {"todo": {"get": {Event: []string{"todo.list"}}}},
	})

	svc := fakeContext{apiName: "proxy", resource: "todo", path: "/rest/todo"}
	name, ok := env.manager.FindEvent(context.Background(), svc, "get")
	assert.True(t, ok)
	assert.Equal(t, "todo.list", name)
}

func TestHasEvent(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"db": {"db.{table_name}": {"post": {Event: []string{"db.{table_name}.insert", "db.table_inserted"}}}},
	})
	ctx := context.Background()
	svc := fakeContext{apiName: "db"}

	assert.True(t, env.manager.HasEvent(ctx, svc, "POST", "db.table_inserted"))
	assert.True(t, env.manager.HasEvent(ctx, svc, "post", "db.{table_name}.insert"))
	assert.False(t, env.manager.HasEvent(ctx, svc, "get", "db.table_inserted"))
	assert.False(t, env.manager.HasEvent(ctx, svc, "post", "db.table_deleted"))
}

func TestHasEventCachedPerServiceType(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"db": {"db.todo": {"get": {Event: []string{"db.todo.select"}}}},
	})
	ctx := context.Background()

	assert.True(t, env.manager.HasEvent(ctx, fakeContext{apiName: "db"}, "get", "db.todo.select"))
	assert.False(t, env.manager.HasEvent(ctx, fakeContext{apiName: "db"}, "get", "db.todo.insert"))

	// Swap the map without resetting cached answers.
	env.manager.mu.Lock()
	env.manager.events = EventMap{"db": {"db.todo": {"get": {Event: []string{"db.todo.insert"}}}}}
	env.manager.mu.Unlock()

	assert.True(t, env.manager.HasEvent(ctx, fakeContext{apiName: "db"}, "get", "db.todo.select"), "cached true")
	assert.False(t, env.manager.HasEvent(ctx, fakeContext{apiName: "db"}, "get", "db.todo.insert"), "cached false")

	other := otherContext{fakeContext{apiName: "db"}}
	assert.False(t, env.manager.HasEvent(ctx, other, "get", "db.todo.select"))
	assert.True(t, env.manager.HasEvent(ctx, other, "get", "db.todo.insert"))
}

func TestHasEventCacheResetOnClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := fakeContext{apiName: "mail"}

	assert.False(t, env.manager.HasEvent(ctx, svc, "post", "email.sent"))

	env.manager.ClearCache(ctx)
	env.registry.svcs = append(env.registry.svcs, domain.ServiceDescriptor{APIName: "mail", TypeID: domain.TypeLocalEmail})
	assert.True(t, env.manager.HasEvent(ctx, svc, "post", "email.sent"))
}

func TestLookupMetrics(t *testing.T) {
	env := newTestEnv(t)
	seedEvents(env, EventMap{
		"system": {"system.role": {"get": {Event: []string{"system.role.read"}}}},
	})
	ctx := context.Background()

	env.manager.FindEvent(ctx, fakeContext{apiName: "system", path: "system/role"}, "get")
	env.manager.FindEvent(ctx, fakeContext{apiName: "system", path: "system/app"}, "get")

	assert.Equal(t, int64(2), env.metrics.Lookups.Load())
	assert.Equal(t, int64(1), env.metrics.LookupMisses.Load())
}

func TestCleanRequestPath(t *testing.T) {
	tests := map[string]string{
		"/rest/db/todo/": "db/todo",
		"rest/system":    "system",
		"/rest":          "",
		"db/todo":        "db/todo",
		"/restaurant/x":  "restaurant/x",
		"//rest//db//":   "db",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanRequestPath(in), in)
	}
}

func TestPathPattern(t *testing.T) {
	assert.True(t, pathPattern("db.{table_name}.{id}").MatchString("db.todo.5"))
	assert.False(t, pathPattern("db.{table_name}.{id}").MatchString("db.todo"))
	assert.False(t, pathPattern("db.{table_name}").MatchString("db.todo.5"))
	assert.True(t, pathPattern("files.{container}.{file_path}").MatchString("files.c.a.b.txt"))
	assert.True(t, pathPattern("a.b+c").MatchString("a.b+c"))
	assert.False(t, pathPattern("a.b").MatchString("aXb"))
}
