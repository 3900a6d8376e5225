package swagger

import (
	"regexp"
	"strings"

	"github.com/dreamfactory/dspdocs/internal/domain"
)

// EventInfo is what a path+method fires: event names in declaration order
// and the scripts bound to them.
type EventInfo struct {
	Event   []string `json:"event"`
	Scripts []string `json:"scripts"`
}

// MethodEvents maps a lower-case HTTP method to its events.
type MethodEvents map[string]EventInfo

// ServiceEvents maps a dotted path key (e.g. "db.table.{table_name}") to
// the methods that fire events on it.
type ServiceEvents map[string]MethodEvents

// EventMap maps a service api name to its path keys.
type EventMap map[string]ServiceEvents

// CubeEntry lists, per path key, one script list for every operation that
// fires the event.
type CubeEntry struct {
	Triggers map[string][][]string `json:"triggers"`
}

// Cube is the inverted index from literal event name to triggering paths.
type Cube map[string]CubeEntry

// add appends one operation's scripts to event's triggers under pathKey.
func (c Cube) add(event, pathKey string, scripts []string) {
	entry, ok := c[event]
	if !ok {
		entry = CubeEntry{Triggers: make(map[string][][]string)}
	}
	cp := make([]string, len(scripts))
	copy(cp, scripts)
	entry.Triggers[pathKey] = append(entry.Triggers[pathKey], cp)
	c[event] = entry
}

// merge folds other into c, appending trigger lists.
func (c Cube) merge(other Cube) {
	for event, entry := range other {
		for pathKey, lists := range entry.Triggers {
			for _, scripts := range lists {
				c.add(event, pathKey, scripts)
			}
		}
	}
}

// ScriptFinder discovers scripts for a path key, method and literal event.
type ScriptFinder interface {
	Find(pathKey, method, eventName string) []string
}

// Parser derives event routing from descriptors.
type Parser struct {
	scripts ScriptFinder
}

// NewParser creates a parser. A nil finder binds no scripts.
func NewParser(scripts ScriptFinder) *Parser {
	return &Parser{scripts: scripts}
}

var eventMacros = regexp.MustCompile(`(?i)\{api_name\}|\{action\}|\{request\.method\}`)

// PathKey normalizes a descriptor path into its dotted event-map key.
func PathKey(apiName, path string) string {
	key := strings.Trim(path, "/")
	key = strings.ReplaceAll(key, "{api_name}", apiName)
	return strings.ReplaceAll(key, "/", ".")
}

// EventName substitutes {api_name}, {action} and {request.method}
// (case-insensitive) in an event-name template.
func EventName(template, apiName, method string) string {
	return eventMacros.ReplaceAllStringFunc(template, func(m string) string {
		if strings.EqualFold(m, "{api_name}") {
			return apiName
		}
		return method
	})
}

// Parse walks doc and returns its events keyed by path, plus a fresh cube
// holding only this document's triggers.
func (p *Parser) Parse(apiName string, doc *domain.APIDocument) (ServiceEvents, Cube) {
	events := make(ServiceEvents)
	cube := make(Cube)
	if doc == nil {
		return events, cube
	}

	for _, path := range doc.APIs {
		key := PathKey(apiName, path.Path)

		for _, op := range path.Operations {
			if len(op.EventName) == 0 {
				continue
			}

			method := strings.ToLower(strings.TrimSpace(op.Method))
			if method == "" {
				method = "get"
			}

			info := EventInfo{Event: make([]string, 0, len(op.EventName)), Scripts: []string{}}
			seen := make(map[string]bool)
			for _, tmpl := range op.EventName {
				name := EventName(tmpl, apiName, method)
				info.Event = append(info.Event, name)
				for _, s := range p.find(key, method, name) {
					if !seen[s] {
						seen[s] = true
						info.Scripts = append(info.Scripts, s)
					}
				}
			}

			if events[key] == nil {
				events[key] = make(MethodEvents)
			}
			events[key][method] = info

			added := make(map[string]bool, len(info.Event))
			for _, name := range info.Event {
				if !added[name] {
					added[name] = true
					cube.add(name, key, info.Scripts)
				}
			}
		}
	}
	return events, cube
}

func (p *Parser) find(pathKey, method, event string) []string {
	if p == nil || p.scripts == nil {
		return nil
	}
	return p.scripts.Find(pathKey, method, event)
}
