// Package mcpsrv exposes the marketplace catalog over the Model Context
// Protocol so MCP-speaking agents can browse tools and prices before
// committing to payment. Discovery only: paid invocation stays on the
// HTTP 402 surface.
package mcpsrv

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
)

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
}

// Server wraps the MCP server together with the catalog it publishes.
type Server struct {
	cfg       ServerConfig
	catalog   *tool.Catalog
	mcpServer *mcpserver.MCPServer
	httpSrv   *mcpserver.StreamableHTTPServer
}

// NewServer creates an MCP server publishing the given catalog.
func NewServer(cfg ServerConfig, catalog *tool.Catalog) *Server {
	s := &Server{
		cfg:       cfg,
		catalog:   catalog,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version),
	}
	s.registerTools()
	return s
}

// MCPServer exposes the underlying server for testing.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start serves MCP over streamable HTTP in the background.
func (s *Server) Start() error {
	s.httpSrv = mcpserver.NewStreamableHTTPServer(s.mcpServer)
	go func() {
		slog.Info("mcp server listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.Start(s.cfg.Addr); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the MCP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
