package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// APIDocument is the typed view of a per-service swagger 1.2 descriptor.
// The raw JSON stays authoritative for serving; this view drives event
// parsing and export.
type APIDocument struct {
	SwaggerVersion string           `json:"swaggerVersion,omitempty"`
	APIVersion     string           `json:"apiVersion,omitempty"`
	BasePath       string           `json:"basePath,omitempty"`
	ResourcePath   string           `json:"resourcePath,omitempty"`
	APIs           []PathDescriptor `json:"apis"`
	Models         map[string]any   `json:"models,omitempty"`
}

// PathDescriptor is one entry of a descriptor's "apis" list.
type PathDescriptor struct {
	Path        string                `json:"path"`
	Description string                `json:"description,omitempty"`
	Operations  []OperationDescriptor `json:"operations"`
}

// OperationDescriptor is one HTTP operation under a path.
type OperationDescriptor struct {
	Method     string                `json:"method"`
	Nickname   string                `json:"nickname,omitempty"`
	Summary    string                `json:"summary,omitempty"`
	Notes      string                `json:"notes,omitempty"`
	Type       string                `json:"type,omitempty"`
	EventName  EventNames            `json:"event_name,omitempty"`
	Parameters []ParameterDescriptor `json:"parameters,omitempty"`
}

// ParameterDescriptor is a swagger 1.2 operation parameter.
type ParameterDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParamType   string `json:"paramType,omitempty"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// EventNames holds the event_name of an operation, which descriptors write
// either as a single string or as a list of strings.
type EventNames []string

// UnmarshalJSON accepts a string, a list of strings, or null.
func (e *EventNames) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*e = nil
			return nil
		}
		*e = EventNames{s}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("event_name must be a string or list of strings: %w", err)
	}
	out := make(EventNames, 0, len(list))
	for _, s := range list {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	*e = out
	return nil
}

// DecodeAPIDocument parses descriptor JSON into its typed view.
func DecodeAPIDocument(raw []byte) (*APIDocument, error) {
	var doc APIDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
