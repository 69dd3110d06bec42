// Package mcpserver exposes file resolution as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/finder"
	"github.com/docseek/docseek/internal/logger"
	"github.com/docseek/docseek/internal/navigator"
)

// Server wraps the MCP server with docseek tools.
type Server struct {
	mcp    *server.MCPServer
	finder *finder.Service
	token  string
	logger *zap.Logger
}

// New creates an MCP server. defaultToken is used by tools called without
// an access_token argument; it may be empty.
func New(f *finder.Service, defaultToken, version string, log *zap.Logger) *Server {
	s := &Server{finder: f, token: defaultToken, logger: logger.OrNop(log)}

	s.mcp = server.NewMCPServer(
		"docseek",
		version,
		server.WithToolCapabilities(false),
	)

	tokenArg := mcp.WithString("access_token", mcp.Description("Bearer token for the document repository (defaults to the configured token)"))

	s.mcp.AddTool(mcp.NewTool("find_file",
		mcp.WithDescription("Rank indexed files by similarity to a description such as \"the site plan pdf\"."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text file description")),
		mcp.WithNumber("threshold", mcp.Description("Minimum cosine similarity (exclusive)")),
		mcp.WithNumber("top_k", mcp.Description("Maximum number of matches")),
		mcp.WithBoolean("keyword", mcp.Description("Match file names by keywords instead of embeddings")),
	), s.findFile)

	s.mcp.AddTool(mcp.NewTool("get_download_url",
		mcp.WithDescription("Exchange a storage link (href) for a time-limited download URL."),
		mcp.WithString("href", mcp.Required(), mcp.Description("Storage locator link of the file")),
		tokenArg,
	), s.getDownloadURL)

	s.mcp.AddTool(mcp.NewTool("find_and_download",
		mcp.WithDescription("Find the best matching indexed file and return its download URL."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text file description")),
		tokenArg,
	), s.findAndDownload)

	s.mcp.AddTool(mcp.NewTool("list_hubs",
		mcp.WithDescription("List the hubs visible to the access token."),
		tokenArg,
	), s.listHubs)

	s.mcp.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Walk hub → project → folders → file by approximate names. "+
			"When file is given, the download URL of the located file is returned."),
		mcp.WithString("hub", mcp.Required(), mcp.Description("Approximate hub name")),
		mcp.WithString("project", mcp.Required(), mcp.Description("Approximate project name")),
		mcp.WithArray("folders", mcp.Description("Approximate folder names below the project root, outermost first"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("file", mcp.Description("Approximate file name")),
		tokenArg,
	), s.navigate)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) credential(req mcp.CallToolRequest) string {
	if tok := req.GetString("access_token", ""); tok != "" {
		return tok
	}
	return s.token
}

func (s *Server) findFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := finder.Query{Text: query, Keyword: req.GetBool("keyword", false)}
	args := req.GetArguments()
	if _, ok := args["threshold"]; ok {
		th := req.GetFloat("threshold", 0)
		q.Threshold = &th
	}
	if _, ok := args["top_k"]; ok {
		k := req.GetInt("top_k", 0)
		q.TopK = &k
	}
	matches, err := s.finder.Find(ctx, q)
	if err != nil {
		return s.toolError("find_file", err), nil
	}
	return jsonResult(matches)
}

func (s *Server) getDownloadURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	href, err := req.RequireString("href")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.finder.SignedURL(ctx, s.credential(req), href)
	if err != nil {
		return s.toolError("get_download_url", err), nil
	}
	return jsonResult(d)
}

func (s *Server) findAndDownload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, _, err := s.finder.FindAndSign(ctx, s.credential(req), finder.Query{Text: query})
	if err != nil {
		return s.toolError("find_and_download", err), nil
	}
	return jsonResult(d)
}

func (s *Server) listHubs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hubs, err := s.finder.ListHubs(ctx, s.credential(req))
	if err != nil {
		return s.toolError("list_hubs", err), nil
	}
	return jsonResult(hubs)
}

type navigateResult struct {
	Node     dm.Node          `json:"node"`
	Trail    []dm.Node        `json:"trail"`
	Download *finder.Download `json:"download,omitempty"`
}

func (s *Server) navigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hub, err := req.RequireString("hub")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := navigator.Path{
		Hub:     hub,
		Project: project,
		Folders: req.GetStringSlice("folders", nil),
		File:    req.GetString("file", ""),
	}
	cred := s.credential(req)

	node, trail, err := s.finder.Navigate(ctx, cred, p)
	if err != nil {
		return s.toolError("navigate", err), nil
	}
	res := navigateResult{Node: node, Trail: trail}
	if node.Kind == dm.KindFile {
		d, err := s.finder.SignedURL(ctx, cred, node.StorageLink)
		if err != nil {
			return s.toolError("navigate", err), nil
		}
		d.Name = node.Name
		res.Download = &d
	}
	return jsonResult(res)
}

// toolError turns err into a tool error with a hint the caller can act on.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err))
	msg := err.Error()
	switch {
	case errors.Is(err, apperr.ErrAuthenticationExpired):
		msg = "authentication expired: obtain a new access token and retry (" + msg + ")"
	case errors.Is(err, apperr.ErrResolutionNotFound), errors.Is(err, apperr.ErrNoConfidentMatch):
		msg = "not found: " + msg
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
