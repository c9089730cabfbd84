package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
)

// registerTools registers the catalog discovery tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listToolsTool(),
		s.getToolTool(),
	)
}

func (s *Server) listToolsTool() mcpserver.ServerTool {
	t := mcplib.NewTool("list_tools",
		mcplib.WithDescription("List all marketplace tools with their USDC prices"),
	)
	return mcpserver.ServerTool{
		Tool:    t,
		Handler: s.handleListTools,
	}
}

func (s *Server) getToolTool() mcpserver.ServerTool {
	t := mcplib.NewTool("get_tool",
		mcplib.WithDescription("Get the descriptor and price of a single marketplace tool"),
		mcplib.WithString("name",
			mcplib.Required(),
			mcplib.Description("The tool identifier to look up"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    t,
		Handler: s.handleGetTool,
	}
}

// descriptorView is the discovery payload: wire descriptor plus the
// structured price pulled out of the description for convenience.
type descriptorView struct {
	tool.Descriptor
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

func (s *Server) handleListTools(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	views := make([]descriptorView, 0, len(s.catalog.List()))
	for _, d := range s.catalog.List() {
		views = append(views, descriptorView{Descriptor: d, Price: d.Price, Currency: d.Currency})
	}
	data, err := json.Marshal(views)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal tools", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetTool(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcplib.NewToolResultError("name is required"), nil
	}
	d, ok := s.catalog.Get(name)
	if !ok {
		return mcplib.NewToolResultError(fmt.Sprintf("unknown tool %q", name)), nil
	}
	data, err := json.Marshal(descriptorView{Descriptor: d, Price: d.Price, Currency: d.Currency})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal tool", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
