package swagger

import (
	"context"
	"sort"
)

// VerbEvents is one method's events in the client listing.
type VerbEvents struct {
	Type    string   `json:"type"`
	Event   []string `json:"event"`
	Scripts []string `json:"scripts"`
}

// PathEvents is one path's methods in the client listing.
type PathEvents struct {
	Path  string       `json:"path"`
	Verbs []VerbEvents `json:"verbs"`
}

// ServiceEventList is one service's paths in the client listing.
type ServiceEventList struct {
	Name  string       `json:"name"`
	Paths []PathEvents `json:"paths"`
}

// AllEvents returns {"record": ...} holding either the raw event map
// (asCached) or a list of services with their paths and verbs, sorted by
// name at every level.
func (m *Manager) AllEvents(ctx context.Context, asCached bool) map[string]any {
	events := m.EventMap(ctx)
	if asCached {
		return map[string]any{"record": events}
	}
	return map[string]any{"record": Flatten(events)}
}

// Flatten converts an event map into the client listing form.
func Flatten(events EventMap) []ServiceEventList {
	out := make([]ServiceEventList, 0, len(events))
	for _, name := range sortedKeys(events) {
		svc := ServiceEventList{Name: name, Paths: []PathEvents{}}
		paths := events[name]
		for _, p := range sortedKeys(paths) {
			pe := PathEvents{Path: p, Verbs: []VerbEvents{}}
			methods := paths[p]
			for _, verb := range sortedKeys(methods) {
				info := methods[verb]
				scripts := info.Scripts
				if scripts == nil {
					scripts = []string{}
				}
				pe.Verbs = append(pe.Verbs, VerbEvents{Type: verb, Event: info.Event, Scripts: scripts})
			}
			svc.Paths = append(svc.Paths, pe)
		}
		out = append(out, svc)
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
