// Package mcpserver assembles the MCP server: the Polygon-backed tool
// surface, the stock summary prompt, and the ticker search resource.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/marketdesk/mcp-polygon/internal/telemetry"
	"github.com/marketdesk/mcp-polygon/internal/tickers"
)

const (
	serverName        = "polygonserver"
	tickerResourceURI = "tickers://search/{stock_name}"
)

// Server owns the MCP protocol server and its backing services.
type Server struct {
	mcp           *server.MCPServer
	client        PolygonAPI
	index         *tickers.Index
	logger        *zap.Logger
	searchResults int
}

// New constructs the MCP server and registers the full tool surface.
func New(client PolygonAPI, index *tickers.Index, logger *zap.Logger, version string, searchResults int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if searchResults <= 0 {
		searchResults = 1
	}
	s := &Server{
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
			server.WithRecovery(),
		),
		client:        client,
		index:         index,
		logger:        logger,
		searchResults: searchResults,
	}
	s.registerMarketTools()
	s.registerReferenceTools()
	s.registerInsightTools()
	s.registerPrompts()
	s.registerResources()
	return s
}

// ServeStdio blocks serving the stdio transport until ctx finishes or
// stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// StreamableHTTPHandler returns the streamable HTTP transport for
// mounting under the service router.
func (s *Server) StreamableHTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

func (s *Server) registerPrompts() {
	prompt := mcp.NewPrompt("stock_summary",
		mcp.WithPromptDescription("Prompt template for summarising stock price data"),
		mcp.WithArgument("stock_data",
			mcp.ArgumentDescription("Raw stock data to summarise"),
			mcp.RequiredArgument(),
		),
	)
	s.mcp.AddPrompt(prompt, s.handleStockSummaryPrompt)
}

func (s *Server) handleStockSummaryPrompt(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	stockData, ok := request.Params.Arguments["stock_data"]
	if !ok || stockData == "" {
		return nil, fmt.Errorf("stock_data argument is required")
	}
	text := fmt.Sprintf(`You are a helpful financial assistant designed to summarise stock data.
Using the information below, summarise the pertinent points relevant to stock price movement.
Data: %s`, stockData)
	return mcp.NewGetPromptResult(
		"Summarise stock price data",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}

func (s *Server) registerResources() {
	tmpl := mcp.NewResourceTemplate(
		tickerResourceURI,
		"Ticker search",
		mcp.WithTemplateDescription("Find a stock ticker by company name, e.g. Google or Bank of America. Returns the closest matches from a similarity search."),
		mcp.WithTemplateMIMEType("application/json"),
	)
	s.mcp.AddResourceTemplate(tmpl, s.handleTickerSearch)
}

func (s *Server) handleTickerSearch(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw := strings.TrimPrefix(request.Params.URI, "tickers://search/")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("stock name is required")
	}
	matches := s.index.Search(name, s.searchResults)
	payload, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode matches: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(payload),
		},
	}, nil
}

// rawResult converts a client response into a tool result, recording the
// invocation outcome. API failures become tool errors, not protocol
// errors, so the model sees the diagnostic.
func (s *Server) rawResult(tool string, raw json.RawMessage, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return s.errorResult(tool, err), nil
	}
	telemetry.ObserveToolInvocation(tool, "ok")
	var buf bytes.Buffer
	if indentErr := json.Indent(&buf, raw, "", "  "); indentErr != nil {
		return mcp.NewToolResultText(string(raw)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) errorResult(tool string, err error) *mcp.CallToolResult {
	telemetry.ObserveToolInvocation(tool, "error")
	s.logger.Warn("tool call failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err))
}

func (s *Server) staticResult(tool string, payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return s.errorResult(tool, fmt.Errorf("encode payload: %w", err)), nil
	}
	telemetry.ObserveToolInvocation(tool, "ok")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) staticResultText(tool, text string) (*mcp.CallToolResult, error) {
	telemetry.ObserveToolInvocation(tool, "ok")
	return mcp.NewToolResultText(text), nil
}

// optionalBool reads a tri-state boolean argument: nil when absent.
func optionalBool(request mcp.CallToolRequest, key string) *bool {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetBool(key, false)
	return &v
}
