package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// Template names the service renders.
const (
	TemplateIndex = "index"
	TemplatePosts = "posts"
	TemplatePost  = "post"
)

// PostNotFoundBody is the page returned for slugs without a backing file.
const PostNotFoundBody = "Post not found"

// StatusHint tells the routing layer which status a rendered page carries.
type StatusHint int

const (
	Found StatusHint = iota
	NotFound
)

func (h StatusHint) String() string {
	if h == NotFound {
		return "not_found"
	}
	return "found"
}

// PostSource lists and fetches posts.
type PostSource interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, slug string) (models.Post, error)
}

// Views renders named templates.
type Views interface {
	Render(name string, ctx map[string]any) (string, error)
}

// Service renders the blog pages. It holds no state between calls.
type Service struct {
	posts      PostSource
	views      Views
	title      string
	liveReload bool
}

// NewService creates a Service. title is the site title handed to the index
// page; liveReload is exposed to every template as live_reload.
func NewService(posts PostSource, views Views, title string, liveReload bool) *Service {
	return &Service{posts: posts, views: views, title: title, liveReload: liveReload}
}

// Home renders the index page.
func (s *Service) Home(_ context.Context) (string, error) {
	return s.render(TemplateIndex, map[string]any{"title": s.title})
}

// ListPosts renders the listing of every readable post.
func (s *Service) ListPosts(ctx context.Context) (string, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return "", err
	}
	return s.render(TemplatePosts, map[string]any{
		"title": "Posts",
		"posts": posts,
	})
}

// GetPost renders a single post. A missing post is not an error: it yields
// NotFound with a short plain page.
func (s *Service) GetPost(ctx context.Context, slug string) (StatusHint, string, error) {
	post, err := s.posts.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return NotFound, PostNotFoundBody, nil
		}
		return Found, "", fmt.Errorf("post %q: %w", slug, err)
	}
	html, err := s.render(TemplatePost, map[string]any{
		"title": post.Title,
		"post":  post,
	})
	if err != nil {
		return Found, "", err
	}
	return Found, html, nil
}

func (s *Service) render(name string, data map[string]any) (string, error) {
	data["live_reload"] = s.liveReload
	return s.views.Render(name, data)
}
