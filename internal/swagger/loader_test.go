package swagger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) (*Loader, string, string) {
	t.Helper()
	root := t.TempDir()
	descriptors := filepath.Join(root, "descriptors")
	custom := filepath.Join(root, "custom")
	require.NoError(t, os.MkdirAll(descriptors, 0755))
	require.NoError(t, os.MkdirAll(custom, 0755))
	return NewLoader(LoaderConfig{
		DescriptorDir: descriptors,
		CustomDir:     custom,
		APIVersion:    "2.0",
		BasePath:      "http://dsp.local/rest",
	}, nil), descriptors, custom
}

func TestLoadBuiltInSystem(t *testing.T) {
	l, _, _ := newTestLoader(t)

	d, err := l.Load(domain.ServiceDescriptor{APIName: "system", TypeID: domain.TypeSystem})
	require.NoError(t, err)
	assert.Equal(t, "builtin:SystemManager", d.Source)
	assert.Contains(t, string(d.Raw), `"/system/role"`)
	assert.NotContains(t, string(d.Raw), "/{api_name}")

	var m map[string]any
	require.NoError(t, json.Unmarshal(d.Raw, &m))
	assert.Equal(t, "1.2", m["swaggerVersion"])
	assert.Equal(t, "2.0", m["apiVersion"])
	assert.Equal(t, "http://dsp.local/rest", m["basePath"])
	assert.NotEmpty(t, d.Doc.APIs)
}

func TestLoadBuiltInUser(t *testing.T) {
	l, _, _ := newTestLoader(t)

	d, err := l.Load(domain.ServiceDescriptor{APIName: "user", TypeID: domain.TypeSystem})
	require.NoError(t, err)
	assert.Equal(t, "builtin:UserManager", d.Source)
	assert.Contains(t, string(d.Raw), `"/user/session"`)
}

func TestLoadGeneratorFileOverridesBuiltIn(t *testing.T) {
	l, descriptors, _ := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(descriptors, "BaseDbSvc.swagger.json"), []byte(`{
		"apiVersion": "9.9",
		"apis": [{"path": "/{api_name}/table/{table_name}", "operations": [
			{"method": "GET", "event_name": "{api_name}.table.read"}
		]}]
	}`), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "db", TypeID: domain.TypeRemoteSQLDB})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.Source, "file:"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(d.Raw, &m))
	assert.Equal(t, "9.9", m["apiVersion"], "file fields win over base fields")
	assert.Equal(t, "1.2", m["swaggerVersion"])
	require.Len(t, d.Doc.APIs, 1)
	assert.Equal(t, "/db/table/{table_name}", d.Doc.APIs[0].Path)
}

func TestLoadYAMLGenerator(t *testing.T) {
	l, descriptors, _ := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(descriptors, "RemoteWebSvc.swagger.yaml"), []byte(`
apis:
  - path: /{api_name}/forecast
    operations:
      - method: GET
        event_name:
          - "{api_name}.forecast.read"
          - "{api_name}.{action}"
        responseMessages:
          200: ok
`), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "weather", TypeID: domain.TypeRemoteWeb})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(d.Source, "RemoteWebSvc.swagger.yaml"))
	require.Len(t, d.Doc.APIs, 1)
	assert.Equal(t, "/weather/forecast", d.Doc.APIs[0].Path)
	assert.Equal(t, domain.EventNames{"{api_name}.forecast.read", "{api_name}.{action}"}, d.Doc.APIs[0].Operations[0].EventName)
}

func TestLoadInvalidGeneratorFallsThrough(t *testing.T) {
	l, descriptors, custom := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(descriptors, "EmailSvc.swagger.json"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(descriptors, "RemoteWebSvc.swagger.json"), []byte(`not json`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(custom, "web.json"), []byte(`{"apis": []}`), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "mail", TypeID: domain.TypeLocalEmail})
	require.NoError(t, err)
	assert.Equal(t, "builtin:EmailSvc", d.Source)

	d, err = l.Load(domain.ServiceDescriptor{APIName: "web", TypeID: domain.TypeRemoteWeb})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.Source, "custom:"))
}

func TestLoadCustomOverrideVerbatim(t *testing.T) {
	l, _, custom := newTestLoader(t)
	content := `{"apis":[{"path":"/{api_name}/widgets","description":"<b>widgets</b>"}],"basePath":"x"}`
	require.NoError(t, os.WriteFile(filepath.Join(custom, "foo.json"), []byte(content), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "foo", TypeID: domain.TypeRemoteWeb})
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(content, "/{api_name}", "/foo"), string(d.Raw))
	assert.Contains(t, string(d.Raw), "/foo/widgets")
	assert.NotContains(t, string(d.Raw), "{api_name}")
}

func TestLoadCustomEscapedSlashes(t *testing.T) {
	l, _, custom := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(custom, "foo.json"),
		[]byte(`{"apis":[{"path":"\/{api_name}\/widgets"}]}`), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "foo", TypeID: domain.TypeRemoteWeb})
	require.NoError(t, err)
	require.Len(t, d.Doc.APIs, 1)
	assert.Equal(t, "/foo/widgets", d.Doc.APIs[0].Path)
}

func TestLoadNotAvailable(t *testing.T) {
	l, _, custom := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(custom, "empty.json"), []byte("  \n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(custom, "broken.json"), []byte("{nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(custom, "spec.raml"), []byte("#%RAML 0.8"), 0644))

	for _, name := range []string{"empty", "broken", "spec", "missing"} {
		t.Run(name, func(t *testing.T) {
			_, err := l.Load(domain.ServiceDescriptor{APIName: name, TypeID: domain.TypeRemoteWeb})
			assert.True(t, IsNotAvailable(err), "got %v", err)
		})
	}
}

func TestLoadUnknownTypeUsesCustom(t *testing.T) {
	l, _, custom := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(custom, "odd.json"), []byte(`{"apis":[]}`), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "odd", TypeID: domain.ServiceType(77)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.Source, "custom:"))
}

func TestLoadTypedDecodeFailureKeepsRaw(t *testing.T) {
	l, _, custom := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(custom, "odd.json"), []byte(`{"apis":"not-a-list"}`), 0644))

	d, err := l.Load(domain.ServiceDescriptor{APIName: "odd", TypeID: domain.TypeRemoteWeb})
	require.NoError(t, err)
	assert.Equal(t, `{"apis":"not-a-list"}`, string(d.Raw))
	assert.Empty(t, d.Doc.APIs)
}

func TestResourceListing(t *testing.T) {
	l, _, _ := newTestLoader(t)

	listing, err := l.ResourceListing()
	require.NoError(t, err)
	assert.Equal(t, "1.2", listing["swaggerVersion"])
	assert.Equal(t, "2.0", listing["apiVersion"])
	assert.Equal(t, "http://dsp.local/rest", listing["basePath"])
	assert.Contains(t, listing, "info")
}

func TestExampleTemplate(t *testing.T) {
	data := ExampleTemplate()
	require.NotEmpty(t, data)
	assert.True(t, json.Valid(data))
}

func TestNormalizeYAML(t *testing.T) {
	in := map[string]any{
		"a": map[any]any{200: "ok", "x": []any{map[any]any{true: 1}}},
	}
	out := normalizeYAML(in).(map[string]any)
	inner := out["a"].(map[string]any)
	assert.Equal(t, "ok", inner["200"])
	assert.Equal(t, 1, inner["x"].([]any)[0].(map[string]any)["true"])
}

func TestGetCommonResponses(t *testing.T) {
	all := GetCommonResponses()
	require.Len(t, all, 4)
	assert.Equal(t, 400, all[0].Code)
	assert.Equal(t, 500, all[3].Code)

	some := GetCommonResponses(500, 404)
	require.Len(t, some, 2)
	assert.Equal(t, 404, some[0].Code)
	assert.Equal(t, 500, some[1].Code)

	assert.Empty(t, GetCommonResponses(418))

	all[0].Code = 999
	assert.Equal(t, 400, GetCommonResponses()[0].Code)
}
