// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz graph tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/archive"
	"github.com/starford/ansuz/internal/query"
	"github.com/starford/ansuz/internal/session"
)

// Asker runs retrieval and answer generation for a session.
type Asker interface {
	Run(ctx context.Context, sessionID, queryText string) *query.Result
}

// Ingestor schedules document processing for a session.
type Ingestor interface {
	Run(ctx context.Context, sessionID string, content []byte, filename string)
}

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp      *server.MCPServer
	registry *session.Registry
	asker    Asker
	ingestor Ingestor
	archive  *archive.DB // nil when the archive is disabled
}

// New creates a new MCP server with all Ansuz tools registered.
// archiveDB may be nil.
func New(registry *session.Registry, asker Asker, ingestor Ingestor, archiveDB *archive.DB) *Server {
	s := &Server{registry: registry, asker: asker, ingestor: ingestor, archive: archiveDB}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("ask_graph",
		mcp.WithDescription("Answer a question from a session's knowledge graph. "+
			"Scores the graph against the question, walks the best-connected region, "+
			"and returns a grounded answer with the node ids it used."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session whose graph to query")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question")),
	), s.askGraph)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the full knowledge graph of a session as JSON "+
			"(nodes, edges, source documents). See the ansuz://graph-format resource."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to inspect")),
	), s.getGraph)

	s.mcp.AddTool(mcp.NewTool("search_chunks",
		mcp.WithDescription("Search the archived text chunks of a session's documents."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to search")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchChunks)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all known session ids."),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("ingest_document",
		mcp.WithDescription("Fetch a plain-text or Markdown document from a URL or "+
			"base64 data URI and build the session's knowledge graph from it. "+
			"Replaces the session's previous graph. Processing runs in the background; "+
			"poll get_graph to see the result."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Target session")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI of the document")),
		mcp.WithString("filename", mcp.Description("Optional filename override (must end with .txt or .md)")),
	), s.ingestDocument)

	// Resource: graph snapshot format.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://graph-format", "Graph Snapshot Format",
			mcp.WithResourceDescription("JSON shape of session graph snapshots returned by get_graph."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGraphFormatResource,
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

func (s *Server) askGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queryText, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.asker.Run(ctx, sessionID, queryText)
	if res == nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed for session %s (missing session, empty graph, or generation error)", sessionID)), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", sessionID)), nil
	}
	out, _ := json.MarshalIndent(sess.Snapshot(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchChunks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.archive == nil {
		return mcp.NewToolResultError("chunk archive is disabled"), nil
	}
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queryText, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.archive.Search(sessionID, queryText, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no matching chunks"), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := s.registry.List()
	if len(ids) == 0 {
		return mcp.NewToolResultText("no sessions"), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) readGraphFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://graph-format",
			MIMEType: "text/markdown",
			Text:     GraphFormatContract,
		},
	}, nil
}
