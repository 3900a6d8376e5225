package swagger

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
)

// ServiceContext describes the service handling the current request.
type ServiceContext interface {
	// APIName is the service's api name, e.g. "db".
	APIName() string
	// Resource is the first path segment after the api name, if any.
	Resource() string
	// ResourcePath is the request path, e.g. "/rest/db/todo/1".
	ResourcePath() string
	// ServiceName is the service's type name, used as a lookup fallback.
	ServiceName() string
}

type lookupKey struct {
	service string
	method  string
	event   string
}

// resourceMacros are tried as event map keys when the request's resource
// has no entry of its own.
var resourceMacros = []string{"{table_name}", "{container}", "{folder_path}", "{file_path}"}

// HasEvent reports whether any path in the event map fires eventName for
// method. Results are cached per service type, method and event name until
// the next rebuild or clear.
func (m *Manager) HasEvent(ctx context.Context, svc ServiceContext, method, eventName string) bool {
	method = strings.ToLower(method)
	identity := "*"
	if svc != nil {
		identity = fmt.Sprintf("%T", svc)
	}
	key := lookupKey{service: identity, method: method, event: eventName}

	m.mu.RLock()
	found, ok := m.lookups[key]
	m.mu.RUnlock()
	if ok {
		m.metrics.RecordLookup(found)
		return found
	}

	found = containsEvent(m.EventMap(ctx), method, eventName)

	m.mu.Lock()
	m.lookups[key] = found
	m.mu.Unlock()

	m.metrics.RecordLookup(found)
	return found
}

func containsEvent(events EventMap, method, eventName string) bool {
	for _, paths := range events {
		for _, methods := range paths {
			if info, ok := methods[method]; ok && slices.Contains(info.Event, eventName) {
				return true
			}
		}
	}
	return false
}

// FindEvent resolves the request described by svc and method to the first
// event name registered for it. The second result is false when nothing
// matches.
func (m *Manager) FindEvent(ctx context.Context, svc ServiceContext, method string) (string, bool) {
	if svc == nil {
		return "", false
	}
	name, ok := findInMap(m.EventMap(ctx), svc, strings.ToLower(method))
	m.metrics.RecordLookup(ok)
	return name, ok
}

func findInMap(events EventMap, svc ServiceContext, method string) (string, bool) {
	paths := resolvePaths(events, svc)
	if paths == nil {
		return "", false
	}

	reqPath := cleanRequestPath(svc.ResourcePath())
	if reqPath == "" {
		return "", false
	}
	dotted := strings.ReplaceAll(reqPath, "/", ".")

	if name, ok := matchPath(paths, dotted, method); ok {
		return name, true
	}
	if rest, ok := strings.CutPrefix(dotted, "system."); ok {
		return matchPath(paths, rest, method)
	}
	return "", false
}

// resolvePaths picks the event map entry for the request: its resource,
// its api name, the resource macros, its service name, then "system". A
// resource naming another service is skipped while the request's own
// service has entries.
func resolvePaths(events EventMap, svc ServiceContext) ServiceEvents {
	apiName := svc.APIName()
	_, own := events[apiName]

	candidates := []string{svc.Resource(), apiName}
	candidates = append(candidates, resourceMacros...)
	candidates = append(candidates, svc.ServiceName(), "system")

	for i, c := range candidates {
		if c == "" {
			continue
		}
		if i == 0 && own && c != apiName {
			continue
		}
		if paths, ok := events[c]; ok {
			return paths
		}
	}
	return nil
}

// cleanRequestPath trims slashes and a leading "rest" segment.
func cleanRequestPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "rest" {
		return ""
	}
	p = strings.TrimPrefix(p, "rest/")
	return strings.Trim(p, "/")
}

// matchPath tries literal keys before templated ones, each group in lexical
// order, and returns the first event of the first key matching dotted that
// has an entry for method.
func matchPath(paths ServiceEvents, dotted, method string) (string, bool) {
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := isTemplated(keys[i]), isTemplated(keys[j])
		if ti != tj {
			return !ti
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		if !pathPattern(k).MatchString(dotted) {
			continue
		}
		if info, ok := paths[k][method]; ok && len(info.Event) > 0 {
			return info.Event[0], true
		}
	}
	return "", false
}

func isTemplated(key string) bool {
	for _, seg := range strings.Split(key, ".") {
		if paramName(seg) != "" {
			return true
		}
	}
	return false
}

// paramName returns the parameter name of a "{name}" or ":name" segment.
func paramName(seg string) string {
	if len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}' {
		return seg[1 : len(seg)-1]
	}
	if len(seg) > 1 && seg[0] == ':' {
		return seg[1:]
	}
	return ""
}

var patterns sync.Map // path key -> *regexp.Regexp

// pathPattern compiles a path key into an anchored regex. Parameter
// segments match one dotted segment, except *_path parameters which may
// span several.
func pathPattern(key string) *regexp.Regexp {
	if re, ok := patterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}

	segs := strings.Split(key, ".")
	parts := make([]string, len(segs))
	for i, seg := range segs {
		name := paramName(seg)
		switch {
		case name == "":
			parts[i] = regexp.QuoteMeta(seg)
		case strings.HasSuffix(name, "_path"):
			parts[i] = `(.+)`
		default:
			parts[i] = `([^.]+)`
		}
	}
	re := regexp.MustCompile(`^` + strings.Join(parts, `\.`) + `$`)
	patterns.Store(key, re)
	return re
}
