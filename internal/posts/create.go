package posts

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/quire/internal/models"
)

// Draft is the input for a new post document.
type Draft struct {
	Title string
	Date  string
	Slug  string
	Body  string
}

// FormatDocument renders d as a document with a YAML front-matter block.
func FormatDocument(d Draft) (string, error) {
	meta, err := yaml.Marshal(struct {
		Title string `yaml:"title"`
		Date  string `yaml:"date"`
		Slug  string `yaml:"slug"`
	}{d.Title, d.Date, d.Slug})
	if err != nil {
		return "", fmt.Errorf("posts: encode metadata: %w", err)
	}
	body := d.Body
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return "---\n" + string(meta) + "---\n" + body, nil
}

// Create writes d as a new document named after its slug. The document is
// parsed before it is written, so Create never leaves a file that List would
// skip. An existing file yields apperr.ErrAlreadyExists.
func (r *Repository) Create(_ context.Context, d Draft) (models.Post, error) {
	if !validSlug(d.Slug) {
		return models.Post{}, fmt.Errorf("posts: invalid slug %q", d.Slug)
	}
	doc, err := FormatDocument(d)
	if err != nil {
		return models.Post{}, err
	}
	post, err := r.parser.ParseDocument(doc)
	if err != nil {
		return models.Post{}, err
	}
	if err := r.store.Create(d.Slug+r.store.Ext(), []byte(doc)); err != nil {
		return models.Post{}, err
	}
	return post, nil
}
