package templates

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/flosch/pongo2/v6"
)

// ErrTemplateNotFound is wrapped by RenderError when no template has the
// requested name.
var ErrTemplateNotFound = errors.New("template not found")

// RenderError reports a failed render of a named template.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Store holds the live template Set. Readers load it lock-free and always
// see one complete set; Replace swaps in a new one atomically.
type Store struct {
	dir     string
	pattern string
	live    atomic.Pointer[Set]
}

// NewStore builds the initial set from dir and returns a store serving it.
func NewStore(dir, pattern string) (*Store, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	set, err := Build(dir, pattern)
	if err != nil {
		return nil, err
	}
	s := &Store{dir: dir, pattern: pattern}
	s.live.Store(set)
	return s, nil
}

// Current returns the live set.
func (s *Store) Current() *Set {
	return s.live.Load()
}

// Render executes the named template of the live set with ctx.
func (s *Store) Render(name string, ctx map[string]any) (string, error) {
	tpl, ok := s.live.Load().Lookup(name)
	if !ok {
		return "", &RenderError{Name: name, Err: ErrTemplateNotFound}
	}
	out, err := tpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return "", &RenderError{Name: name, Err: err}
	}
	return out, nil
}

// Replace makes set the live set. Renders already in flight finish on the
// set they started with.
func (s *Store) Replace(set *Set) error {
	if set == nil {
		return errors.New("templates: replace with nil set")
	}
	s.live.Store(set)
	return nil
}

// Reload rebuilds the whole set from disk and swaps it in. The build runs on
// an unshared candidate; on failure the live set is left untouched and the
// error is returned.
func (s *Store) Reload() (*Set, error) {
	set, err := Build(s.dir, s.pattern)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(set); err != nil {
		return nil, err
	}
	return set, nil
}
