// Package posts assembles post listings and single posts from the posts
// directory. Nothing is cached: every call re-reads and re-parses.
package posts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/storage"
)

// DocumentParser turns a raw document into a post.
type DocumentParser interface {
	ParseDocument(raw string) (models.Post, error)
}

// Repository reads posts through a storage.Provider.
type Repository struct {
	store  storage.Provider
	parser DocumentParser
	logger *slog.Logger
}

// NewRepository creates a Repository.
func NewRepository(store storage.Provider, parser DocumentParser, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, parser: parser, logger: logger}
}

// Ext returns the document extension post files carry.
func (r *Repository) Ext() string { return r.store.Ext() }

type listed struct {
	post models.Post
	path string
}

// List returns every post that can be read and parsed. Broken documents are
// skipped so a single bad file never takes the listing down. Posts are
// ordered newest first by date, then by slug, then by file path.
func (r *Repository) List(_ context.Context) ([]models.Post, error) {
	files, err := r.store.List("")
	if err != nil {
		return nil, fmt.Errorf("posts: list: %w", err)
	}

	items := make([]listed, 0, len(files))
	for _, f := range files {
		data, err := r.store.Read(f.Path)
		if err != nil {
			r.logger.Debug("posts: skipping unreadable file", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		post, err := r.parser.ParseDocument(string(data))
		if err != nil {
			r.logger.Debug("posts: skipping unparseable file", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		items = append(items, listed{post: post, path: f.Path})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.post.Date != b.post.Date {
			return a.post.Date > b.post.Date
		}
		if a.post.Slug != b.post.Slug {
			return a.post.Slug < b.post.Slug
		}
		return a.path < b.path
	})

	out := make([]models.Post, len(items))
	for i, it := range items {
		out[i] = it.post
	}
	return out, nil
}

// Get reads and parses the document named slug. A slug without a backing
// file yields apperr.ErrNotFound; parse failures are returned unchanged.
func (r *Repository) Get(_ context.Context, slug string) (models.Post, error) {
	if !validSlug(slug) {
		return models.Post{}, apperr.ErrNotFound
	}
	data, err := r.store.Read(slug + r.store.Ext())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Post{}, apperr.ErrNotFound
		}
		return models.Post{}, err
	}
	return r.parser.ParseDocument(string(data))
}

// validSlug rejects identifiers that could address anything other than a
// single file directly under the posts root.
func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && !strings.ContainsRune(slug, 0)
}
