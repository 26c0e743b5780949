package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/posts"
	"github.com/starford/quire/internal/storage"
)

// OpenPosts builds the post repository described by cfg, creating the
// posts directory if needed.
func OpenPosts(cfg *Config, logger *slog.Logger) (*posts.Repository, error) {
	if err := os.MkdirAll(cfg.Posts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create posts dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Posts.Dir, cfg.Posts.Extension)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	renderer, err := markdown.NewRenderer(cfg.Markdown.Options())
	if err != nil {
		return nil, fmt.Errorf("init markdown: %w", err)
	}
	return posts.NewRepository(store, parser.New(renderer), logger), nil
}
