package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/templates"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Posts     PostsConfig       `yaml:"posts"`
	Templates TemplatesConfig   `yaml:"templates"`
	Assets    AssetsConfig      `yaml:"assets"`
	Markdown  MarkdownConfig    `yaml:"markdown"`
	Journal   JournalConfig     `yaml:"journal"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Posts.Validate(); err != nil {
		return fmt.Errorf("posts: %w", err)
	}
	if err := c.Templates.Validate(); err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	if err := c.Assets.Validate(); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	if err := c.Markdown.Validate(); err != nil {
		return fmt.Errorf("markdown: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	Title    string     `yaml:"title"`
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// PostsConfig locates the post documents.
type PostsConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
}

// Validate validates the posts configuration.
func (c *PostsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.Length(1, 16)),
	)
}

// TemplatesConfig locates the templates and controls hot reload.
//
// Watch turns on the filesystem watcher; it is meant for development and
// can stay off in production, where templates only change on deploy.
type TemplatesConfig struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
	Watch   bool   `yaml:"watch"`
}

// Validate validates the templates configuration.
func (c *TemplatesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Pattern, validation.Required),
	)
}

// AssetsConfig holds the static assets directory and the optional command
// that rebuilds derived assets before each template reload.
type AssetsConfig struct {
	Dir          string        `yaml:"dir"`
	BuildCommand string        `yaml:"build_command"`
	BuildTimeout time.Duration `yaml:"build_timeout"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BuildTimeout, validation.Min(time.Duration(0))),
	)
}

// MarkdownConfig selects optional markdown syntax.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions"`
	HeadingIDs bool     `yaml:"heading_ids"`
}

// Validate validates the markdown configuration.
func (c *MarkdownConfig) Validate() error {
	known := make([]any, 0, len(markdown.Extensions()))
	for _, name := range markdown.Extensions() {
		known = append(known, name)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Extensions, validation.Each(validation.Required, validation.In(known...))),
	)
}

// Options converts the section into renderer options.
func (c *MarkdownConfig) Options() markdown.Options {
	return markdown.Options{Extensions: c.Extensions, HeadingIDs: c.HeadingIDs}
}

// JournalConfig holds the SQLite reload journal path. An empty path
// disables the journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether reload cycles are recorded.
func (c *JournalConfig) Enabled() bool {
	return c.Path != ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			Title:    "quire",
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Posts: PostsConfig{
			Dir:       "./posts",
			Extension: storage.DefaultExt,
		},
		Templates: TemplatesConfig{
			Dir:     "./templates",
			Pattern: templates.DefaultPattern,
		},
		Assets: AssetsConfig{
			Dir:          "./assets",
			BuildTimeout: 30 * time.Second,
		},
	}
}
