package swagger

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/getkin/kin-openapi/openapi3"
)

// EventExtension carries an operation's event names in exported documents.
const EventExtension = "x-dsp-event"

var templateParam = regexp.MustCompile(`\{([^}/]+)\}`)

var exportMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// ExportOpenAPI converts one cached service descriptor to a validated
// OpenAPI 3 document.
func (m *Manager) ExportOpenAPI(ctx context.Context, apiName string) (*openapi3.T, error) {
	raw, err := m.ServiceListing(ctx, apiName)
	if err != nil {
		return nil, err
	}
	doc, err := domain.DecodeAPIDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCache, apiName, err)
	}
	return ToOpenAPI(ctx, apiName, doc)
}

// ToOpenAPI converts a swagger 1.2 descriptor to OpenAPI 3. Operations keep
// their event names under the x-dsp-event extension.
func ToOpenAPI(ctx context.Context, apiName string, doc *domain.APIDocument) (*openapi3.T, error) {
	version := doc.APIVersion
	if version == "" {
		version = "1.0"
	}

	out := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "DreamFactory Services Platform: " + apiName,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
	}
	if doc.BasePath != "" {
		out.Servers = openapi3.Servers{{URL: doc.BasePath}}
	}

	nicknames := make(map[string]int)
	for _, p := range doc.APIs {
		for _, op := range p.Operations {
			if op.Nickname != "" {
				nicknames[op.Nickname]++
			}
		}
	}

	for _, p := range doc.APIs {
		path := "/" + strings.TrimLeft(p.Path, "/")
		item := out.Paths.Find(path)
		if item == nil {
			item = &openapi3.PathItem{Description: p.Description}
			for _, match := range templateParam.FindAllStringSubmatch(path, -1) {
				item.Parameters = append(item.Parameters, &openapi3.ParameterRef{
					Value: openapi3.NewPathParameter(match[1]).WithSchema(openapi3.NewStringSchema()),
				})
			}
			out.Paths.Set(path, item)
		}

		for _, op := range p.Operations {
			method := strings.ToUpper(strings.TrimSpace(op.Method))
			if method == "" {
				method = http.MethodGet
			}
			if !exportMethods[method] {
				continue
			}
			item.SetOperation(method, convertOperation(apiName, method, op, nicknames))
		}
	}

	if err := out.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi export for %s: %w", apiName, err)
	}
	return out, nil
}

// convertOperation maps one swagger operation. Event names are expanded the
// same way the parser expands them, so exports match the event map.
func convertOperation(apiName, method string, op domain.OperationDescriptor, nicknames map[string]int) *openapi3.Operation {
	o := openapi3.NewOperation()
	o.Summary = op.Summary
	o.Description = op.Notes
	if op.Nickname != "" && nicknames[op.Nickname] == 1 {
		o.OperationID = op.Nickname
	}
	if len(op.EventName) > 0 {
		events := make([]string, len(op.EventName))
		for i, tmpl := range op.EventName {
			events[i] = EventName(tmpl, apiName, strings.ToLower(method))
		}
		o.Extensions = map[string]any{EventExtension: events}
	}

	for _, param := range op.Parameters {
		var p *openapi3.Parameter
		switch param.ParamType {
		case "query":
			p = openapi3.NewQueryParameter(param.Name)
		case "header":
			p = openapi3.NewHeaderParameter(param.Name)
		default:
			continue
		}
		p.Description = param.Description
		p.Required = param.Required
		p.Schema = schemaFor(param.Type).NewRef()
		o.AddParameter(p)
	}

	o.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Success"),
		}),
	)
	return o
}

func schemaFor(typ string) *openapi3.Schema {
	switch strings.ToLower(typ) {
	case "integer", "int", "int32", "int64":
		return openapi3.NewIntegerSchema()
	case "number", "float", "double":
		return openapi3.NewFloat64Schema()
	case "boolean", "bool":
		return openapi3.NewBoolSchema()
	}
	return openapi3.NewStringSchema()
}
