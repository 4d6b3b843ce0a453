// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the knowledge store to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arnstad/mnemo/internal/models"
	"github.com/arnstad/mnemo/internal/store"
)

// Server wraps the MCP server with knowledge-store tools.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
}

// New creates a new MCP server with all tools registered.
func New(st *store.Store) *Server {
	s := &Server{store: st}

	s.mcp = server.NewMCPServer(
		"Mnemo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Search knowledge items by substring across title, content, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("type", mcp.Description("Optional item type filter: note, bookmark, article, or image")),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Read a single knowledge item by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.getItem)

	s.mcp.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Capture a new knowledge item. Type must be one of note, bookmark, article, image."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title (non-empty)")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Item type: note, bookmark, article, or image")),
		mcp.WithString("content", mcp.Description("Free-text body")),
		mcp.WithString("category", mcp.Description("Category name")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("url", mcp.Description("Source URL for bookmarks and articles")),
	), s.addItem)

	s.mcp.AddTool(mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Flip the favorite flag on a knowledge item."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.toggleFavorite)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List all categories with their derived item counts."),
	), s.listCategories)

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

func (s *Server) searchItems(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filters := models.SearchFilters{}
	if typ := req.GetString("type", ""); typ != "" {
		if !models.ItemType(typ).Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown item type: %s", typ)), nil
		}
		filters.Type = models.ItemType(typ)
	}
	if tag := req.GetString("tag", ""); tag != "" {
		filters.Tags = []string{tag}
	}

	// Query does not touch the interactive selection state.
	items := s.store.Query(query, filters)
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, ok := s.store.GetItem(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("title cannot be blank"), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !models.ItemType(typ).Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown item type: %s", typ)), nil
	}

	draft := store.ItemDraft{
		Title:    strings.TrimSpace(title),
		Content:  req.GetString("content", ""),
		Type:     models.ItemType(typ),
		Category: req.GetString("category", ""),
		Tags:     splitTags(req.GetString("tags", "")),
	}
	if url := req.GetString("url", ""); url != "" {
		draft.URL = &url
	}

	item := s.store.AddItem(draft)
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", item.ID)), nil
}

func (s *Server) toggleFavorite(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, ok := s.store.ToggleFavorite(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("favorite: %t", item.IsFavorite)), nil
}

func (s *Server) listCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.store.Categories(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// splitTags parses a comma-separated tag list, dropping blanks and
// duplicates while keeping order.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
