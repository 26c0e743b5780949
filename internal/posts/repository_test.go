package posts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/testutil"
)

func testRepo(t *testing.T, files map[string]string) (*Repository, string) {
	t.Helper()
	dir, store := testutil.TestPosts(t, files)
	return NewRepository(store, testutil.Parser(t), testutil.Logger()), dir
}

func slugs(ps []models.Post) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Slug
	}
	return out
}

func TestList_SkipsBrokenDocuments(t *testing.T) {
	repo, _ := testRepo(t, map[string]string{
		"good-1.md":        testutil.Post("One", "2024-01-01", "one", "first"),
		"nested/good-2.md": testutil.Post("Two", "2024-02-01", "two", "second"),
		"good-3.md":        testutil.Post("Three", "2024-03-01", "three", "third"),
		"no-delims.md":     "title: Broken\nno front matter here",
		"no-slug.md":       "---\ntitle: X\ndate: 2024-01-01\n---\nbody",
		"bad-yaml.md":      "---\ntitle: [oops\n---\nbody",
		"ignored.txt":      testutil.Post("Txt", "2024-04-01", "txt", "not a post"),
	})

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"three", "two", "one"}
	if diff := cmp.Diff(want, slugs(got)); diff != "" {
		t.Errorf("slugs mismatch (-want +got):\n%s", diff)
	}
}

func TestList_OrderNewestFirstThenSlug(t *testing.T) {
	repo, _ := testRepo(t, map[string]string{
		"b.md": testutil.Post("B", "2024-05-05", "b", ""),
		"a.md": testutil.Post("A", "2024-05-05", "a", ""),
		"c.md": testutil.Post("C", "2023-12-31", "c", ""),
		"d.md": testutil.Post("D", "2025-01-01", "d", ""),
	})
	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, slugs(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestList_DuplicateSlugsKept(t *testing.T) {
	repo, _ := testRepo(t, map[string]string{
		"first.md":  testutil.Post("First", "2024-01-01", "same", ""),
		"second.md": testutil.Post("Second", "2024-01-01", "same", ""),
	})
	got, _ := repo.List(context.Background())
	if len(got) != 2 || got[0].Title != "First" || got[1].Title != "Second" {
		t.Errorf("got %+v, want both posts ordered by path", got)
	}
}

func TestList_Empty(t *testing.T) {
	repo, _ := testRepo(t, nil)
	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d posts, want 0", len(got))
	}
}

func TestList_RootRemoved(t *testing.T) {
	repo, dir := testRepo(t, nil)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.List(context.Background()); err == nil {
		t.Fatal("expected error when posts root is gone")
	}
}

func TestGet_Found(t *testing.T) {
	repo, _ := testRepo(t, map[string]string{
		"hello.md": "preamble---\ntitle: Hi\ndate: 2024-01-01\nslug: hi\n---\n# Hello",
	})
	got, err := repo.Get(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := models.Post{Title: "Hi", Date: "2024-01-01", Slug: "hi", Content: "<h1>Hello</h1>\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := testRepo(t, nil)
	for _, slug := range []string{"missing", "", "..", "../etc/passwd", "a/b"} {
		_, err := repo.Get(context.Background(), slug)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestGet_ParseErrorPropagates(t *testing.T) {
	repo, _ := testRepo(t, map[string]string{
		"broken.md": "---\ntitle: T\ndate: d\n---\nbody",
	})
	_, err := repo.Get(context.Background(), "broken")
	if errors.Is(err, apperr.ErrNotFound) {
		t.Fatal("parse failure must not look like not found")
	}
	var pe *parser.ParseError
	if !errors.As(err, &pe) || pe.Field != parser.FieldSlug {
		t.Fatalf("err = %v, want missing slug ParseError", err)
	}
}

func TestGet_IOErrorIsNotNotFound(t *testing.T) {
	repo, dir := testRepo(t, nil)
	// A directory where the file should be fails to read with a non-ENOENT error.
	if err := os.Mkdir(filepath.Join(dir, "dir.md"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := repo.Get(context.Background(), "dir")
	if err == nil || errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want I/O error", err)
	}
}

func TestFormatDocument_RoundTrips(t *testing.T) {
	doc, err := FormatDocument(Draft{Title: "Colons: and # hashes", Date: "2024-05-01", Slug: "tricky", Body: "Hello"})
	if err != nil {
		t.Fatalf("FormatDocument: %v", err)
	}
	post, err := testutil.Parser(t).ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument(%q): %v", doc, err)
	}
	want := models.Post{Title: "Colons: and # hashes", Date: "2024-05-01", Slug: "tricky", Content: "<p>Hello</p>\n"}
	if diff := cmp.Diff(want, post); diff != "" {
		t.Errorf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate(t *testing.T) {
	repo, dir := testRepo(t, nil)
	ctx := context.Background()

	post, err := repo.Create(ctx, Draft{Title: "Fresh", Date: "2024-06-01", Slug: "fresh", Body: "# Hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.Content != "<h1>Hi</h1>\n" {
		t.Errorf("content = %q", post.Content)
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.md")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	got, err := repo.Get(ctx, "fresh")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(post, got); diff != "" {
		t.Errorf("Get mismatch (-created +got):\n%s", diff)
	}

	_, err = repo.Create(ctx, Draft{Title: "Again", Date: "2024-06-02", Slug: "fresh"})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}
}

func TestCreate_Rejects(t *testing.T) {
	repo, dir := testRepo(t, nil)
	ctx := context.Background()

	if _, err := repo.Create(ctx, Draft{Title: "T", Date: "2024-01-01", Slug: "../escape"}); err == nil {
		t.Error("traversal slug accepted")
	}
	_, err := repo.Create(ctx, Draft{Title: "", Date: "2024-01-01", Slug: "untitled"})
	if !errors.Is(err, parser.ErrMissingField) {
		t.Errorf("empty title err = %v, want missing field", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "untitled.md")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("invalid draft was written")
	}
}
