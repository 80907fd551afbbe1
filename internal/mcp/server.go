package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/docindex/internal/extract"
	"github.com/Aman-CERP/docindex/internal/query"
	"github.com/Aman-CERP/docindex/internal/store"
	"github.com/Aman-CERP/docindex/pkg/version"
)

// Searcher runs deduplicated searches. *query.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, q string) ([]query.Entry, error)
}

// SectionReader loads the markup of one section. *query.Previewer
// implements it.
type SectionReader interface {
	Section(ctx context.Context, url string) (string, error)
}

// Options configures a Server.
type Options struct {
	// IndexDir is the local artifact directory reported by index_status.
	IndexDir string
	Logger   *slog.Logger
}

// Server is the MCP server for docindex.
// It exposes the docs index to AI clients over stdio.
type Server struct {
	mcp      *mcp.Server
	searcher Searcher
	sections SectionReader
	indexDir string
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        ToolSearchDocs,
		Description: "Search the documentation site. Returns at most one result per page, best first, each with its URL, title and breadcrumb.",
	},
	{
		Name:        ToolReadSection,
		Description: "Read the full text of a documentation section by URL, as returned by search_docs. A URL without a fragment returns the page intro.",
	},
	{
		Name:        ToolIndexStatus,
		Description: "Report which engine built the local index, how many records and pages it holds and when it was built.",
	},
}

// NewServer creates a new MCP server.
func NewServer(searcher Searcher, sections SectionReader, opts Options) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if sections == nil {
		return nil, errors.New("section reader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		sections: sections,
		indexDir: opts.IndexDir,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "docindex",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	if s.indexDir != "" {
		s.registerManifestResource()
	}

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "docindex", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

// CallTool invokes a tool by name and returns its markdown rendering.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case ToolSearchDocs:
		in := SearchDocsInput{}
		in.Query, _ = args["query"].(string)
		if l, ok := args["limit"].(float64); ok {
			in.Limit = int(l)
		}
		out, err := s.searchDocs(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatDocsResults(strings.TrimSpace(in.Query), out.Results), nil
	case ToolReadSection:
		in := ReadSectionInput{}
		in.URL, _ = args["url"].(string)
		out, err := s.readSection(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatSection(out), nil
	case ToolIndexStatus:
		out, err := s.indexStatus(ctx)
		if err != nil {
			return "", err
		}
		return FormatIndexStatus(out), nil
	default:
		return "", NewMethodNotFoundError(name)
	}
}

// searchDocs runs a query and converts the entries.
func (s *Server) searchDocs(ctx context.Context, in SearchDocsInput) (SearchDocsOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	q := strings.TrimSpace(in.Query)
	if q == "" {
		return SearchDocsOutput{}, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}
	limit := clampLimit(in.Limit, DefaultLimit, 1, MaxLimit)

	s.logger.Info("search_docs_started",
		slog.String("request_id", requestID),
		slog.String("query", q),
		slog.Int("limit", limit))

	entries, err := s.searcher.Search(ctx, q)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("search_docs_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return SearchDocsOutput{}, MapError(err)
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := SearchDocsOutput{Results: make([]DocResult, 0, len(entries))}
	for _, e := range entries {
		out.Results = append(out.Results, ToDocResult(e))
	}

	s.logger.Info("search_docs_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", len(out.Results)))

	return out, nil
}

// readSection loads one section by URL.
func (s *Server) readSection(ctx context.Context, in ReadSectionInput) (ReadSectionOutput, error) {
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return ReadSectionOutput{}, NewInvalidParamsError("url parameter is required")
	}
	if strings.Contains(url, "://") || strings.HasPrefix(url, "//") {
		return ReadSectionOutput{}, NewInvalidParamsError(fmt.Sprintf("url must be site-relative: %s", url))
	}
	url = query.NavigationTarget(url)

	html, err := s.sections.Section(ctx, url)
	if err != nil {
		s.logger.Warn("read_section_failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return ReadSectionOutput{}, MapError(err)
	}

	out := ReadSectionOutput{URL: url, HTML: html}
	if doc, err := extract.ParseString(html); err == nil {
		out.Text = extract.CollapseText(doc.Root)
	}

	s.logger.Debug("read_section_completed",
		slog.String("url", url),
		slog.Int("bytes", len(html)))
	return out, nil
}

// indexStatus reads the manifest of the local index.
func (s *Server) indexStatus(_ context.Context) (IndexStatusOutput, error) {
	if s.indexDir == "" {
		return IndexStatusOutput{}, MapError(ErrIndexNotFound)
	}
	m, err := store.ReadManifest(s.indexDir)
	if err != nil {
		if os.IsNotExist(err) {
			return IndexStatusOutput{}, MapError(ErrIndexNotFound)
		}
		return IndexStatusOutput{}, MapError(err)
	}
	return IndexStatusOutput{
		IndexDir: s.indexDir,
		Engine:   string(m.Engine),
		Records:  m.Records,
		Pages:    m.Pages,
		BuiltAt:  m.BuiltAt.Format(time.RFC3339),
		BuildID:  m.BuildID,
	}, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("registering_mcp_tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearchDocs, Description: toolInfos[0].Description}, s.mcpSearchDocsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolReadSection, Description: toolInfos[1].Description}, s.mcpReadSectionHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolIndexStatus, Description: toolInfos[2].Description}, s.mcpIndexStatusHandler)

	s.logger.Info("mcp_tools_registered", slog.Int("count", len(toolInfos)))
}

// mcpSearchDocsHandler is the MCP SDK handler for the search_docs tool.
func (s *Server) mcpSearchDocsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocsInput) (
	*mcp.CallToolResult,
	SearchDocsOutput,
	error,
) {
	out, err := s.searchDocs(ctx, input)
	if err != nil {
		return nil, SearchDocsOutput{}, err
	}
	return textResult(FormatDocsResults(strings.TrimSpace(input.Query), out.Results)), out, nil
}

// mcpReadSectionHandler is the MCP SDK handler for the read_section tool.
func (s *Server) mcpReadSectionHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReadSectionInput) (
	*mcp.CallToolResult,
	ReadSectionOutput,
	error,
) {
	out, err := s.readSection(ctx, input)
	if err != nil {
		return nil, ReadSectionOutput{}, err
	}
	return textResult(FormatSection(out)), out, nil
}

// mcpIndexStatusHandler is the MCP SDK handler for the index_status tool.
func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	out, err := s.indexStatus(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return textResult(FormatIndexStatus(out)), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
