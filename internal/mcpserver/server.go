// Package mcpserver exposes the twin as a Model Context Protocol tool.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/logger"
	"digitaltwin/internal/retriever"
	"digitaltwin/internal/service"
)

// ToolName is the name clients call.
const ToolName = "digital-twin-query"

// Asker is the subset of the twin the tool calls.
type Asker interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
}

// QueryInput is the tool's input schema.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to ask about the profile owner's background"`
}

// QueryOutput is the tool's structured output.
type QueryOutput struct {
	Answer  string             `json:"answer"`
	Mode    retriever.Mode     `json:"mode"`
	Sources []retriever.Source `json:"sources"`
}

// Server wraps an mcp.Server with the twin's single tool.
type Server struct {
	twin   Asker
	server *mcp.Server
}

// New registers the query tool under the given server version.
func New(twin Asker, persona, version string) *Server {
	s := &Server{
		twin:   twin,
		server: mcp.NewServer(&mcp.Implementation{Name: "digital-twin", Version: version}, nil),
	}
	desc := "Answer questions about the profile owner's experience, skills, projects and goals using only facts from their profile."
	if persona != "" {
		desc = "Answer questions about " + persona + "'s experience, skills, projects and goals using only facts from their profile."
	}
	mcp.AddTool(s.server, &mcp.Tool{Name: ToolName, Description: desc}, s.handleQuery)
	return s
}

func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	if strings.TrimSpace(in.Question) == "" {
		return nil, QueryOutput{}, domain.ErrEmptyQuestion
	}
	a, err := s.twin.Ask(ctx, in.Question)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	logger.Debugw("mcp query answered", "mode", a.Mode, "cached", a.Cached)
	out := QueryOutput{Answer: a.Text, Mode: a.Mode, Sources: a.Sources}
	if out.Sources == nil {
		out.Sources = []retriever.Source{}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: a.Text}},
		IsError: a.Err != nil,
	}, out, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled or the listener fails.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Infof("mcp server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
