// Package render provides output formatting for terminal and scripted use.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/swagger"
	"github.com/fatih/color"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Services formats the registered services.
func (r *Renderer) Services(services []domain.ServiceDescriptor) string {
	if len(services) == 0 {
		return "No services registered\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Services\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}

	for _, s := range services {
		builtin := ""
		if domain.IsBuiltIn(s.APIName) {
			builtin = " (built-in)"
		}
		if r.pretty {
			fmt.Fprintf(&sb, "  %-16s %-10s %s%s\n",
				color.YellowString(s.APIName), s.TypeID, Truncate(s.Description, 40), color.HiBlackString(builtin))
		} else {
			fmt.Fprintf(&sb, "%s\t%d\t%s\t%s\n", s.APIName, int(s.TypeID), s.TypeID, s.Description)
		}
	}
	return sb.String()
}

// Events formats the event map as a service/path/method tree.
func (r *Renderer) Events(events swagger.EventMap) string {
	if len(events) == 0 {
		return "No events found\n"
	}

	var sb strings.Builder
	for _, svc := range swagger.Flatten(events) {
		if r.pretty {
			sb.WriteString(color.CyanString(svc.Name) + "\n")
		}
		for _, p := range svc.Paths {
			if r.pretty {
				fmt.Fprintf(&sb, "  %s\n", p.Path)
			}
			for _, v := range p.Verbs {
				if r.pretty {
					fmt.Fprintf(&sb, "    └─ %-6s %s%s\n",
						strings.ToUpper(v.Type), strings.Join(v.Event, ", "), r.scripts(v.Scripts))
				} else {
					fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", svc.Name, p.Path, v.Type, strings.Join(v.Event, ","))
				}
			}
		}
	}
	return sb.String()
}

func (r *Renderer) scripts(scripts []string) string {
	if len(scripts) == 0 {
		return ""
	}
	return color.HiBlackString(fmt.Sprintf(" [%d script(s)]", len(scripts)))
}

// Cube formats the event cube: each event with the paths that fire it.
func (r *Renderer) Cube(cube swagger.Cube) string {
	if len(cube) == 0 {
		return "No events found\n"
	}

	names := make([]string, 0, len(cube))
	for name := range cube {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		paths := make([]string, 0, len(cube[name].Triggers))
		for p := range cube[name].Triggers {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		if r.pretty {
			sb.WriteString(color.YellowString(name) + "\n")
			for _, p := range paths {
				fmt.Fprintf(&sb, "    └─ %s (%d)\n", p, len(cube[name].Triggers[p]))
			}
		} else {
			fmt.Fprintf(&sb, "%s\t%s\n", name, strings.Join(paths, ","))
		}
	}
	return sb.String()
}

// Lookup formats the result of resolving a request to an event.
func (r *Renderer) Lookup(method, path, event string, found bool) string {
	if !r.pretty {
		if !found {
			return "\n"
		}
		return event + "\n"
	}
	if !found {
		return fmt.Sprintf("%s %s %s → %s\n", color.RedString("✗"), strings.ToUpper(method), path, color.HiBlackString("no event"))
	}
	return fmt.Sprintf("%s %s %s → %s\n", color.GreenString("✓"), strings.ToUpper(method), path, color.YellowString(event))
}

// Rebuild formats a rebuild summary from the combined listing.
func (r *Renderer) Rebuild(services int, elapsed time.Duration, cacheDir string) string {
	if r.pretty {
		return fmt.Sprintf("%s Rebuilt swagger cache: %d service(s) in %s\n  %s\n",
			color.GreenString("✓"), services, FormatDuration(elapsed), color.HiBlackString(cacheDir))
	}
	return fmt.Sprintf("services=%d elapsed=%s cache=%s\n", services, FormatDuration(elapsed), cacheDir)
}

// Cleared formats a cache clear summary.
func (r *Renderer) Cleared(removed int, cacheDir string) string {
	if r.pretty {
		return fmt.Sprintf("%s Cleared %d cache file(s) from %s\n", color.GreenString("✓"), removed, cacheDir)
	}
	return fmt.Sprintf("removed=%d cache=%s\n", removed, cacheDir)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
