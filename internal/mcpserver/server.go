// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the xmap mind-map tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dagrev/xmap/internal/mapservice"
	"github.com/dagrev/xmap/internal/models"
	"github.com/dagrev/xmap/internal/query"
)

// Server wraps the MCP server with the xmap tools.
type Server struct {
	mcp *server.MCPServer
	svc *mapservice.Service
}

// New creates a new MCP server with all xmap tools registered.
func New(svc *mapservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"xmap",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_xmind",
		mcp.WithDescription("Decode an XMind file into one normalized topic tree per sheet."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the .xmind file (must be inside an allowed directory)")),
	), s.readXmind)

	s.mcp.AddTool(mcp.NewTool("list_xmind_files",
		mcp.WithDescription("List all .xmind files under a directory, or under every allowed directory."),
		mcp.WithString("directory", mcp.Description("Optional directory to scan (empty for all allowed roots)")),
	), s.listXmindFiles)

	s.mcp.AddTool(mcp.NewTool("read_multiple_xmind",
		mcp.WithDescription("Decode several XMind files at once. Each path yields its own result or error; one bad file never fails the batch."),
		mcp.WithArray("paths", mcp.Required(), mcp.Description("Paths of the .xmind files to decode"), mcp.Items(map[string]any{"type": "string"})),
	), s.readMultiple)

	s.mcp.AddTool(mcp.NewTool("find_xmind_files",
		mcp.WithDescription("Find .xmind files whose name or content contains a substring. Name matches come before content matches."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Case-insensitive substring to search for")),
	), s.findXmindFiles)

	s.mcp.AddTool(mcp.NewTool("extract_node",
		mcp.WithDescription("Extract the topic at an exact path like \"Root > Child > Grandchild\". Titles match case-insensitively."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xmind file")),
		mcp.WithString("node_path", mcp.Required(), mcp.Description("Topic titles joined with '>'")),
	), s.extractNode)

	s.mcp.AddTool(mcp.NewTool("extract_node_by_id",
		mcp.WithDescription("Extract a topic by its exact identifier, searching every sheet."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xmind file")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Topic identifier")),
	), s.extractNodeByID)

	s.mcp.AddTool(mcp.NewTool("search_nodes_fuzzy",
		mcp.WithDescription("Rank topics against a free-text query by path relevance. Results are confidence-descending."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xmind file")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
	), s.searchNodesFuzzy)

	s.mcp.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Search topics by substring over selected fields (title, notes, labels, callouts, taskStatus), "+
			"optionally filtered by task status. An empty query with a task_status filter returns every topic of that status."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xmind file")),
		mcp.WithString("query", mcp.Description("Substring to search for")),
		mcp.WithArray("fields", mcp.Description("Fields to search (default: all)"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case-sensitively (default false)")),
		mcp.WithString("task_status", mcp.Description("Only return topics with this task status (todo or done)")),
	), s.searchNodes)

	s.mcp.AddTool(mcp.NewTool("create_xmind",
		mcp.WithDescription("Build and write an XMind file from sheet descriptions. Topics reference each other by title "+
			"(linkToTopic, dependencies, relationships); the builder resolves titles into generated ids. "+
			"Read the map-format contract first via the get_map_contract tool or the xmap://map-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Output path (must end with .xmind)")),
		mcp.WithArray("sheets", mcp.Required(), mcp.Description("Sheet descriptions following the xmap map-format contract")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing file (default false)")),
	), s.createXmind)

	s.mcp.AddTool(mcp.NewTool("get_map_contract",
		mcp.WithDescription("Returns the canonical xmap sheet-description format. "+
			"Call this before creating mind maps to ensure correct structure."),
	), s.getMapContract)

	// Resource: map description contract.
	s.mcp.AddResource(
		mcp.NewResource("xmap://map-format", "Mind-Map Description Contract",
			mcp.WithResourceDescription("Canonical sheet-description format accepted by create_xmind."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMapFormatResource,
	)

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

func (s *Server) readXmind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	forest, err := s.svc.ReadMap(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(forest)
}

func (s *Server) listXmindFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("directory", "")
	paths, err := s.svc.ListMaps(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(paths)
}

func (s *Server) readMultiple(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := req.GetStringSlice("paths", nil)
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths is required"), nil
	}
	return jsonResult(s.svc.ReadMany(ctx, paths))
}

func (s *Server) findXmindFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := s.svc.FindFiles(ctx, pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(paths)
}

func (s *Server) extractNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodePath, err := req.RequireString("node_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := s.svc.ExtractNode(ctx, path, nodePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(node)
}

func (s *Server) extractNodeByID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, found, err := s.svc.ExtractNodeByID(ctx, path, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return jsonResult(map[string]any{"found": false})
	}
	return jsonResult(map[string]any{"found": true, "node": node})
}

func (s *Server) searchNodesFuzzy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 10)
	matches, err := s.svc.SearchFuzzy(ctx, path, q, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(matches)
}

func (s *Server) searchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := query.SearchOptions{
		Fields:        req.GetStringSlice("fields", nil),
		CaseSensitive: req.GetBool("case_sensitive", false),
		TaskStatus:    req.GetString("task_status", ""),
	}
	matches, err := s.svc.SearchFields(ctx, path, req.GetString("query", ""), opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(matches)
}

func (s *Server) createXmind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := req.GetArguments()["sheets"]
	if !ok {
		return mcp.NewToolResultError("sheets is required"), nil
	}
	sheets, err := decodeSheets(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.svc.CreateMap(ctx, path, sheets, req.GetBool("overwrite", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", resolved)), nil
}

func (s *Server) getMapContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MapFormatContract), nil
}

func (s *Server) readMapFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "xmap://map-format",
			MIMEType: "text/markdown",
			Text:     MapFormatContract,
		},
	}, nil
}

// decodeSheets converts the raw tool argument into sheet descriptions by
// re-marshaling through JSON.
func decodeSheets(raw any) ([]models.SheetDescription, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("sheets: %w", err)
	}
	var sheets []models.SheetDescription
	if err := json.Unmarshal(data, &sheets); err != nil {
		return nil, fmt.Errorf("sheets must be an array of sheet descriptions: %w", err)
	}
	return sheets, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
