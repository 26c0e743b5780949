package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/quire/internal"
	"github.com/starford/quire/internal/mcpserver"
	"github.com/starford/quire/internal/posts"
	pkgconfig "github.com/starford/quire/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("watch") {
		cfg.Templates.Watch = true
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func newPost(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, err := internal.OpenPosts(cfg, slog.Default())
	if err != nil {
		return err
	}

	date := cmd.String("date")
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}
	post, err := repo.Create(ctx, posts.Draft{
		Title: cmd.String("title"),
		Date:  date,
		Slug:  cmd.String("slug"),
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "created %s/%s%s\n", cfg.Posts.Dir, post.Slug, cfg.Posts.Extension)
	return nil
}

func serveMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	repo, err := internal.OpenPosts(cfg, logger)
	if err != nil {
		return err
	}
	return mcpserver.New(repo, version).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:    "quire",
		Usage:   "Markdown publishing server with hot-reloaded templates",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve posts over HTTP",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Reload templates when they change on disk",
					},
				},
			},
			{
				Name:   "new",
				Usage:  "Create a post skeleton",
				Action: newPost,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Usage: "Post slug (file name)", Required: true},
					&cli.StringFlag{Name: "title", Usage: "Post title", Required: true},
					&cli.StringFlag{Name: "date", Usage: "Post date (default today)"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
