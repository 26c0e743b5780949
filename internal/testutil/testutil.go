// Package testutil provides shared test helpers for posts and template fixtures.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/storage"
)

// Post returns a well-formed document.
func Post(title, date, slug, body string) string {
	return "---\ntitle: " + title + "\ndate: " + date + "\nslug: " + slug + "\n---\n" + body
}

// WriteFiles writes files (relative path → content) under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestPosts creates a temporary posts directory holding files.
func TestPosts(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	store, err := storage.NewFS(dir, storage.DefaultExt)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestTemplates creates a temporary templates directory holding files.
func TestTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return dir
}

// Parser returns a document parser with the default markdown renderer.
func Parser(t *testing.T) *parser.Parser {
	t.Helper()
	r, err := markdown.NewRenderer(markdown.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return parser.New(r)
}

// Logger returns a logger that only reports errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
