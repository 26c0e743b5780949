// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the posts to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/posts"
)

// PostFormatURI addresses the post format contract resource.
const PostFormatURI = "quire://post-format"

// Posts is the post repository the tools operate on.
type Posts interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, slug string) (models.Post, error)
	Create(ctx context.Context, d posts.Draft) (models.Post, error)
	Ext() string
}

// Server wraps the MCP server with the post tools.
type Server struct {
	mcp      *server.MCPServer
	posts    Posts
	contract string
	now      func() time.Time
}

// New creates a new MCP server with all tools registered.
func New(repo Posts, version string) *Server {
	s := &Server{
		posts:    repo,
		contract: PostFormatContract(repo.Ext()),
		now:      time.Now,
	}

	s.mcp = server.NewMCPServer(
		"quire",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List every published post (title, date, slug), newest first. "+
			"Files that fail to parse are left out."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read one post by slug, including its rendered HTML content."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (the file name without extension)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new post. The document is validated before it is written. "+
			"Read the contract first via get_post_format_contract or the "+PostFormatURI+" resource."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug; becomes the file name")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title")),
		mcp.WithString("date", mcp.Description("ISO-8601 date; defaults to today")),
		mcp.WithString("body", mcp.Description("Markdown body")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("get_post_format_contract",
		mcp.WithDescription("Returns the post document format. "+
			"Call this before creating posts to ensure correct structure."),
	), s.getPostFormatContract)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource(PostFormatURI, "Post Format Contract",
			mcp.WithResourceDescription("Document format every post must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

type postSummary struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Slug  string `json:"slug"`
}

func (s *Server) listPosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.posts.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]postSummary, len(list))
	for i, p := range list {
		out[i] = postSummary{Title: p.Title, Date: p.Date, Slug: p.Slug}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.posts.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, _ := json.MarshalIndent(post, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date := req.GetString("date", "")
	if date == "" {
		date = s.now().Format(time.DateOnly)
	}

	_, err = s.posts.Create(ctx, posts.Draft{
		Title: title,
		Date:  date,
		Slug:  slug,
		Body:  req.GetString("body", ""),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("post already exists: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", slug)), nil
}

func (s *Server) getPostFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.contract), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PostFormatURI,
			MIMEType: "text/markdown",
			Text:     s.contract,
		},
	}, nil
}
