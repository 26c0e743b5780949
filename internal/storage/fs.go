package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// DefaultExt is the document extension used when none is configured.
const DefaultExt = ".md"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the posts directory
	ext  string
}

// NewFS creates a new FS provider rooted at the given directory, selecting
// files that end in ext. The directory must already exist.
func NewFS(root, ext string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FS{root: abs, ext: ext}, nil
}

// Root returns the absolute posts directory.
func (f *FS) Root() string { return f.root }

// Ext returns the recognized document extension.
func (f *FS) Ext() string { return f.ext }

// safePath resolves a relative path against the root and rejects any
// result that escapes it. Rejections wrap fs.ErrNotExist: a path outside
// the root names no document.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute path %s: %w", rel, fs.ErrNotExist)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root %s: %w", rel, fs.ErrNotExist)
	}
	return abs, nil
}

// List walks dir (relative to root) and returns every file ending in the
// document extension. Unreadable sub-directories and entries are skipped;
// only a failure to read dir itself is returned.
func (f *FS) List(dir string) ([]models.PostFile, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.PostFile
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == base {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), f.ext) {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return nil
		}
		out = append(out, models.PostFile{Path: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a file under the root.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Create writes content to a new file, creating parent directories as
// needed. The name is claimed with an exclusive create, so of several
// concurrent calls for one path exactly one succeeds and the rest get
// apperr.ErrAlreadyExists. The content then replaces the empty claim via
// temp file and rename.
func (f *FS) Create(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	claim, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("storage: create %s: %w", path, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	if err := claim.Close(); err != nil {
		_ = os.Remove(abs)
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		_ = os.Remove(abs)
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}
