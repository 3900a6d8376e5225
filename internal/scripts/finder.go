// Package scripts discovers server-side event scripts on disk.
//
// Scripts live flat in one directory and are named either
// <path>.<method>.<anything>.js or <event name>.js.
package scripts

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Finder globs a script directory. Results are absolute paths, sorted, with
// duplicates removed within a single Find call.
type Finder struct {
	root string
	fsys fs.FS
}

// NewFinder creates a finder rooted at dir.
func NewFinder(dir string) *Finder {
	return &Finder{root: dir, fsys: os.DirFS(dir)}
}

// Root returns the script directory.
func (f *Finder) Root() string {
	if f == nil {
		return ""
	}
	return f.root
}

// Find returns scripts bound to pathKey+method, followed by scripts named
// after eventName. A missing directory yields no scripts.
func (f *Finder) Find(pathKey, method, eventName string) []string {
	if f == nil || f.root == "" {
		return nil
	}
	if info, err := os.Stat(f.root); err != nil || !info.IsDir() {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(matches []string) {
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, filepath.Join(f.root, filepath.FromSlash(m)))
		}
	}

	prefix := escape(strings.ToLower(pathKey)) + "." + escape(strings.ToLower(method)) + "."
	add(f.glob(prefix + "*.js"))

	if eventName != "" {
		add(f.glob(escape(eventName) + ".js"))
	}
	return out
}

func (f *Finder) glob(pattern string) []string {
	matches, err := doublestar.Glob(f.fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// escape quotes glob metacharacters so braces in templated path keys and
// event names match literally.
func escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\', ',':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
