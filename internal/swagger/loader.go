package swagger

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/logging"
	"gopkg.in/yaml.v3"
)

// Version is the swagger version written into every generated descriptor.
const Version = "1.2"

// ExampleFileName is seeded into the custom directory on rebuild.
const ExampleFileName = "example_service_swagger.json"

//go:embed templates/*.json
var templateFS embed.FS

// placeholder is the path token replaced by "/<apiName>" in every descriptor.
const placeholder = "/{api_name}"

// generatorExts are tried in order for on-disk generator files.
var generatorExts = []string{".swagger.json", ".swagger.yaml", ".swagger.yml"}

// LoaderConfig locates descriptor sources.
type LoaderConfig struct {
	// DescriptorDir holds generator files named <FileName>.swagger.{json,yaml,yml}.
	// Optional; built-in generators are used when empty or missing a file.
	DescriptorDir string
	// CustomDir holds per-service overrides named <apiName>.json.
	CustomDir  string
	APIVersion string
	BasePath   string
}

// Descriptor is a loaded, placeholder-substituted service descriptor.
type Descriptor struct {
	Service domain.ServiceDescriptor
	Raw     []byte
	Doc     *domain.APIDocument
	Source  string
}

// Loader resolves a service to its descriptor document.
type Loader struct {
	cfg        LoaderConfig
	generators map[string]generator
	log        *logging.Logger
}

// NewLoader creates a loader using the built-in generators.
func NewLoader(cfg LoaderConfig, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Discard()
	}
	return &Loader{cfg: cfg, generators: builtinGenerators, log: log}
}

// Load returns the descriptor for svc or an error wrapping ErrNotAvailable.
// Resolution order: generator file for the service type, built-in generator,
// custom <apiName>.json override. A <apiName>.raml override is recognised
// but unsupported.
func (l *Loader) Load(svc domain.ServiceDescriptor) (*Descriptor, error) {
	raw, source, err := l.resolve(svc)
	if err != nil {
		return nil, err
	}

	raw = substitute(raw, svc.APIName)

	doc, err := domain.DecodeAPIDocument(raw)
	if err != nil {
		l.log.Warn("descriptor_decode_failed", map[string]interface{}{
			"api_name": svc.APIName,
			"source":   source,
		}, err)
		doc = &domain.APIDocument{}
	}

	return &Descriptor{Service: svc, Raw: raw, Doc: doc, Source: source}, nil
}

func (l *Loader) resolve(svc domain.ServiceDescriptor) ([]byte, string, error) {
	apiName := svc.APIName

	if fileName := svc.TypeID.FileName(apiName); fileName != "" {
		if raw, source, ok := l.fromGenerator(apiName, fileName); ok {
			return raw, source, nil
		}
	}

	if l.cfg.CustomDir != "" {
		path := filepath.Join(l.cfg.CustomDir, apiName+".json")
		if fileExists(path) {
			data, err := readFileRetry(path)
			switch {
			case err != nil:
				l.log.Warn("custom_descriptor_unreadable", map[string]interface{}{"path": path}, err)
			case len(bytes.TrimSpace(data)) == 0:
				l.log.Debug("custom_descriptor_empty", map[string]interface{}{"path": path})
			case !json.Valid(data):
				l.log.Warn("custom_descriptor_invalid", map[string]interface{}{"path": path}, nil)
			default:
				return data, "custom:" + path, nil
			}
			return nil, "", fmt.Errorf("%w: %s", ErrNotAvailable, apiName)
		}

		if raml := filepath.Join(l.cfg.CustomDir, apiName+".raml"); fileExists(raml) {
			l.log.Info("raml_descriptor_unsupported", map[string]interface{}{"path": raml})
			return nil, "", fmt.Errorf("%w: %s (raml not supported)", ErrNotAvailable, apiName)
		}
	}

	l.log.Debug("descriptor_not_available", map[string]interface{}{
		"api_name": apiName,
		"type_id":  int(svc.TypeID),
	})
	return nil, "", fmt.Errorf("%w: %s", ErrNotAvailable, apiName)
}

// fromGenerator looks for an on-disk generator file, then a built-in one.
func (l *Loader) fromGenerator(apiName, fileName string) ([]byte, string, bool) {
	if l.cfg.DescriptorDir != "" {
		for _, ext := range generatorExts {
			path := filepath.Join(l.cfg.DescriptorDir, fileName+ext)
			if !fileExists(path) {
				continue
			}
			frag, err := readFragment(path)
			if err == nil && len(frag) == 0 {
				err = fmt.Errorf("empty descriptor")
			}
			if err != nil {
				l.log.Warn("generator_file_invalid", map[string]interface{}{
					"api_name": apiName,
					"path":     path,
				}, err)
				break
			}
			raw, err := l.merge(frag)
			if err != nil {
				l.log.Warn("generator_encode_failed", map[string]interface{}{"path": path}, err)
				break
			}
			return raw, "file:" + path, true
		}
	}

	gen, ok := l.generators[fileName]
	if !ok {
		return nil, "", false
	}
	raw, err := l.merge(gen())
	if err != nil {
		l.log.Warn("generator_encode_failed", map[string]interface{}{"generator": fileName}, err)
		return nil, "", false
	}
	return raw, "builtin:" + fileName, true
}

// merge unions frag over the base swagger fields; frag wins.
func (l *Loader) merge(frag map[string]any) ([]byte, error) {
	out := map[string]any{
		"swaggerVersion": Version,
		"apiVersion":     l.cfg.APIVersion,
		"basePath":       l.cfg.BasePath,
	}
	for k, v := range frag {
		out[k] = v
	}
	return encodeJSON(out)
}

func readFragment(path string) (map[string]any, error) {
	data, err := readFileRetry(path)
	if err != nil {
		return nil, err
	}

	var frag map[string]any
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &frag); err != nil {
			return nil, err
		}
		return frag, nil
	}

	if err := yaml.Unmarshal(data, &frag); err != nil {
		return nil, err
	}
	normalized, _ := normalizeYAML(frag).(map[string]any)
	return normalized, nil
}

// normalizeYAML converts map[any]any nodes (non-string keys) into
// map[string]any so the fragment can be JSON encoded.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}

// substitute replaces every "/{api_name}" with "/<apiName>".
func substitute(raw []byte, apiName string) []byte {
	return bytes.ReplaceAll(raw, []byte(placeholder), []byte("/"+apiName))
}

// ResourceListing returns the combined listing template merged with the
// configured apiVersion and basePath.
func (l *Loader) ResourceListing() (map[string]any, error) {
	data, err := templateFS.ReadFile("templates/resource_listing.json")
	if err != nil {
		return nil, err
	}
	var listing map[string]any
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, err
	}
	listing["apiVersion"] = l.cfg.APIVersion
	listing["basePath"] = l.cfg.BasePath
	return listing, nil
}

// ExampleTemplate returns the custom descriptor example seeded on rebuild.
func ExampleTemplate() []byte {
	data, _ := templateFS.ReadFile("templates/" + ExampleFileName)
	return data
}
