// Package markdown renders post bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Options selects optional syntax on top of CommonMark.
type Options struct {
	// Extensions are goldmark extension names (see Extensions). Unknown
	// names are rejected by NewRenderer.
	Extensions []string
	// HeadingIDs adds generated id attributes to headings.
	HeadingIDs bool
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// Extensions lists the extension names accepted in Options.
func Extensions() []string {
	names := make([]string, 0, len(extensionRegistry))
	for name := range extensionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Renderer converts markdown to HTML. Raw HTML in the source is passed
// through untouched: post content is trusted.
//
// A Renderer holds no per-call state and may be shared across goroutines.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer for the given options.
func NewRenderer(opts Options) (*Renderer, error) {
	var exts []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range opts.Extensions {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[key]; dup {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			return nil, fmt.Errorf("markdown: unknown extension %q", name)
		}
		seen[key] = struct{}{}
		exts = append(exts, ext)
	}

	var parserOpts []parser.Option
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md}, nil
}

// Render returns the HTML for body.
func (r *Renderer) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("markdown: render: %w", err)
	}
	return buf.String(), nil
}
