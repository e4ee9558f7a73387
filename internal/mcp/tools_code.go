package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCodeTools() {
	// ── generate_code ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("generate_code",
		mcp.WithDescription("Generate the Lua program for a workspace and return its source"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleGenerateCode)

	// ── read_program ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("read_program",
		mcp.WithDescription("Read the last generated program file for a workspace without regenerating"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleReadProgram)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGenerateCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _, err := s.resolveWorkspace(req.GetArguments())
	if err != nil {
		return nil, err
	}

	res := s.queue.GenerateNow(id)
	if res.Status != "success" {
		return nil, fmt.Errorf("generate: %s", res.Error)
	}
	source, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, fmt.Errorf("read generated program: %w", err)
	}
	return textResult(string(source)), nil
}

func (s *Server) handleReadProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _, err := s.resolveWorkspace(req.GetArguments())
	if err != nil {
		return nil, err
	}

	source, err := os.ReadFile(s.queue.ProgramPath(id))
	if err != nil {
		return nil, fmt.Errorf("no program generated yet for workspace %s", id)
	}
	return textResult(string(source)), nil
}
