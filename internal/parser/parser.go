// Package parser turns raw documents (YAML front matter followed by a
// markdown body) into posts.
package parser

import (
	"fmt"

	"github.com/starford/quire/internal/models"
)

// Renderer converts a markdown body to HTML.
type Renderer interface {
	Render(body string) (string, error)
}

// Parser assembles posts from raw documents.
type Parser struct {
	renderer Renderer
}

// New returns a Parser that renders bodies with r.
func New(r Renderer) *Parser {
	return &Parser{renderer: r}
}

// ParseDocument splits raw, decodes its metadata and renders its body.
// It stops at the first failure and never returns a partial post; split and
// metadata failures are *ParseError values.
func (p *Parser) ParseDocument(raw string) (models.Post, error) {
	block, body, err := Split(raw)
	if err != nil {
		return models.Post{}, err
	}
	meta, err := ParseMetadata(block)
	if err != nil {
		return models.Post{}, err
	}
	html, err := p.renderer.Render(body)
	if err != nil {
		return models.Post{}, fmt.Errorf("post %q: %w", meta.Slug, err)
	}
	return models.Post{
		Title:   meta.Title,
		Slug:    meta.Slug,
		Date:    meta.Date,
		Content: html,
	}, nil
}
