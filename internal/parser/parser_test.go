package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/models"
)

func testParser(t *testing.T) *Parser {
	t.Helper()
	r, err := markdown.NewRenderer(markdown.Options{})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return New(r)
}

func TestParseDocument_Valid(t *testing.T) {
	p := testParser(t)
	got, err := p.ParseDocument("preamble---\ntitle: Hi\ndate: 2024-01-01\nslug: hi\n---\n# Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.Post{Title: "Hi", Date: "2024-01-01", Slug: "hi", Content: "<h1>Hello</h1>\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDocument_OneDelimiter(t *testing.T) {
	p := testParser(t)
	_, err := p.ParseDocument("title: Hi\n---\nBody")
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Fragment == "" {
		t.Errorf("expected ParseError with fragment, got %#v", err)
	}
}

func TestParseDocument_NoDelimiter(t *testing.T) {
	p := testParser(t)
	if _, err := p.ParseDocument("# Just markdown\n"); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestParseDocument_MissingEachField(t *testing.T) {
	p := testParser(t)
	full := map[string]string{"title": "T", "date": "2024-02-02", "slug": "t"}
	for _, drop := range []string{FieldTitle, FieldDate, FieldSlug} {
		t.Run(drop, func(t *testing.T) {
			var b strings.Builder
			b.WriteString("---\n")
			for _, k := range []string{"title", "date", "slug"} {
				if k != drop {
					b.WriteString(k + ": " + full[k] + "\n")
				}
			}
			b.WriteString("---\nbody\n")

			_, err := p.ParseDocument(b.String())
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("err = %v, want ErrMissingField", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Field != drop {
				t.Errorf("field = %q, want %q", pe.Field, drop)
			}
		})
	}
}

func TestParseDocument_MalformedMetadata(t *testing.T) {
	p := testParser(t)
	_, err := p.ParseDocument("---\ntitle: [unclosed\n---\nbody")
	if !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("err = %v, want ErrMalformedMetadata", err)
	}
}

func TestParseDocument_EmptyMetadataIsMissingTitle(t *testing.T) {
	p := testParser(t)
	_, err := p.ParseDocument("------\nbody")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrMissingField || pe.Field != FieldTitle {
		t.Fatalf("err = %v, want missing title", err)
	}
}

func TestParseDocument_EmptyBody(t *testing.T) {
	p := testParser(t)
	got, err := p.ParseDocument("---\ntitle: T\ndate: d\nslug: s\n---")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "" {
		t.Errorf("content = %q, want empty", got.Content)
	}
}

func TestSplit_BodyKeepsLaterDelimiters(t *testing.T) {
	meta, body, err := Split("x---\ntitle: T\n---\nintro\n\n```\n---\n```\n---\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != "\ntitle: T\n" {
		t.Errorf("meta = %q", meta)
	}
	if body != "\nintro\n\n```\n---\n```\n---\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseMetadata_ScalarsVerbatim(t *testing.T) {
	m, err := ParseMetadata("title: 42\ndate: 2024-01-01T10:00:00Z\nslug: my-post\nextra: [1, 2]\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Metadata{Title: "42", Date: "2024-01-01T10:00:00Z", Slug: "my-post"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMetadata_NonScalarIsMissing(t *testing.T) {
	_, err := ParseMetadata("title:\n  - a\n  - b\ndate: d\nslug: s\n")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrMissingField || pe.Field != FieldTitle {
		t.Fatalf("err = %v, want missing title", err)
	}
}

func TestParseMetadata_NullIsMissing(t *testing.T) {
	_, err := ParseMetadata("title: T\ndate:\nslug: s\n")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != FieldDate {
		t.Fatalf("err = %v, want missing date", err)
	}
}

func TestParseMetadata_NotAMapping(t *testing.T) {
	if _, err := ParseMetadata("- just\n- a list\n"); !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("err = %v, want ErrMalformedMetadata", err)
	}
}

func TestParseMetadata_DuplicateKey(t *testing.T) {
	if _, err := ParseMetadata("title: a\ntitle: b\ndate: d\nslug: s\n"); !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("err = %v, want ErrMalformedMetadata", err)
	}
}
