package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"weekplan/internal/config"
	"weekplan/internal/planner"
)

// Server exposes the planning engine as MCP tools.
type Server struct {
	cfg     *config.AppConfig
	planner *planner.Service
	version string

	// Tool calls switch the active site, so they are serialized.
	mu  sync.Mutex
	now func() time.Time

	sdk *mcp.Server
}

// NewServer creates a new MCP server and registers its tools.
func NewServer(cfg *config.AppConfig, svc *planner.Service, version string) *Server {
	s := &Server{
		cfg:     cfg,
		planner: svc,
		version: version,
		now:     time.Now,
	}
	s.sdk = mcp.NewServer(&mcp.Implementation{Name: "weekplan", Version: version}, nil)
	s.registerTools()
	return s
}

// Start runs the MCP session over stdio until the client disconnects or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting Stdio loop")
	return s.sdk.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over t. Used for in-process clients.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}

// tool adapts a plain handler to the SDK's typed handler. Handler errors become
// IsError results so the client can read them.
func tool[In any](s *Server, name string, fn func(ctx context.Context, in In) (any, error)) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		start := time.Now()
		data, err := fn(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
			return nil, nil, err
		}
		log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("Tool call completed")

		text, err := formatResult(data)
		if err != nil {
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

func formatResult(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}
