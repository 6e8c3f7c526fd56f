// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes journal entry tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lucid/internal/apperr"
	"github.com/starford/lucid/internal/entryservice"
	"github.com/starford/lucid/internal/models"
)

// Server wraps the MCP server with entry tools.
type Server struct {
	mcp          *server.MCPServer
	svc          *entryservice.Service
	defaultLimit int
}

// New creates a new MCP server with all entry tools registered.
func New(svc *entryservice.Service, version string, defaultLimit int) *Server {
	if defaultLimit <= 0 {
		defaultLimit = entryservice.DefaultLimit
	}
	s := &Server{svc: svc, defaultLimit: defaultLimit}

	s.mcp = server.NewMCPServer(
		"Lucid",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("create_entry",
		mcp.WithDescription("Record a new dream journal entry. created_at defaults to now."),
		mcp.WithString("user", mcp.Required(), mcp.Description("Owner of the entry")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Entry title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Free-text body")),
		mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
		mcp.WithString("created_at", mcp.Description("Optional RFC 3339 timestamp")),
	), s.createEntry)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List journal entries, most recent first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 100)")),
		mcp.WithString("user", mcp.Description("Only entries owned by this user")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("get_entry",
		mcp.WithDescription("Fetch a single journal entry by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id as returned by create_entry")),
	), s.getEntry)

	return s
}

// ServeStdio runs the MCP server on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) createEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in models.EntryInput
	var err error
	if in.User, err = req.RequireString("user"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Title, err = req.RequireString("title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Content, err = req.RequireString("content"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in.Tags = req.GetStringSlice("tags", nil)
	if raw := req.GetString("created_at", ""); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("created_at: %v", err)), nil
		}
		in.CreatedAt = &t
	}

	entry, err := s.svc.CreateEntry(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", s.defaultLimit)
	user := req.GetString("user", "")

	entries, err := s.svc.ListEntries(ctx, limit, user)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) getEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.svc.GetEntry(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrInvalidID):
		return mcp.NewToolResultError(fmt.Sprintf("bad entry id: %s", id)), nil
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("entry not found: %s", id)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
