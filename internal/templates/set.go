// Package templates holds the live, hot-swappable set of page templates.
package templates

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flosch/pongo2/v6"
)

// DefaultPattern selects the template sources under the templates root.
const DefaultPattern = "**/*.html"

// Set is a compiled, immutable collection of templates built from one scan
// of a directory. Each template is addressable by its slash-separated path
// relative to the root ("posts/item.html") and by that path without its
// extension ("posts/item"). On a stem clash the lexically first file keeps
// the short name.
type Set struct {
	templates map[string]*pongo2.Template
	files     []string
	builtAt   time.Time
}

// Build compiles every file under dir matching pattern into a new Set.
// It is all-or-nothing: a bad pattern, an unreadable directory, a template
// that fails to parse, or no matching file at all fails the whole build.
func Build(dir, pattern string) (*Set, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("templates: invalid pattern %q", pattern)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("templates: resolve root: %w", err)
	}

	files, err := doublestar.Glob(os.DirFS(abs), pattern,
		doublestar.WithFilesOnly(),
		doublestar.WithFailOnIOErrors(),
	)
	if err != nil {
		return nil, fmt.Errorf("templates: scan %s: %w", abs, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("templates: no files match %q in %s", pattern, abs)
	}
	sort.Strings(files)

	loader, err := pongo2.NewLocalFileSystemLoader(abs)
	if err != nil {
		return nil, fmt.Errorf("templates: loader: %w", err)
	}
	engine := pongo2.NewSet(abs, loader)

	set := &Set{
		templates: make(map[string]*pongo2.Template, len(files)*2),
		files:     files,
		builtAt:   time.Now(),
	}
	for _, name := range files {
		tpl, err := engine.FromFile(name)
		if err != nil {
			return nil, fmt.Errorf("templates: parse %s: %w", name, err)
		}
		set.templates[name] = tpl
	}
	for _, name := range files {
		stem := strings.TrimSuffix(name, path.Ext(name))
		if _, taken := set.templates[stem]; !taken {
			set.templates[stem] = set.templates[name]
		}
	}
	return set, nil
}

// Lookup returns the template registered under name.
func (s *Set) Lookup(name string) (*pongo2.Template, bool) {
	tpl, ok := s.templates[name]
	return tpl, ok
}

// Files returns the template files the set was compiled from.
func (s *Set) Files() []string {
	return append([]string(nil), s.files...)
}

// BuiltAt returns when the set was compiled.
func (s *Set) BuiltAt() time.Time { return s.builtAt }
