package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerWorkspaceTools() {
	// ── list_workspaces ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List all workspaces with their ids and names"),
	), s.handleListWorkspaces)

	// ── create_workspace ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_workspace",
		mcp.WithDescription("Create a new empty workspace and make it active"),
		mcp.WithString("name", mcp.Description("Workspace display name"), mcp.Required()),
	), s.handleCreateWorkspace)

	// ── set_active_workspace ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_workspace",
		mcp.WithDescription("Set the workspace that block tools operate on by default"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID"), mcp.Required()),
	), s.handleSetActiveWorkspace)

	// ── save_workspace ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_workspace",
		mcp.WithDescription("Snapshot the workspace graph and record an undo point"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
		mcp.WithString("label", mcp.Description("Label describing the change (optional)")),
	), s.handleSaveWorkspace)

	// ── undo ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Step the workspace back to the previous saved snapshot"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleUndo)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListWorkspaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.workspaces.ListWorkspaces()
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return jsonResult(list)
}

func (s *Server) handleCreateWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	meta, err := s.workspaces.CreateWorkspace(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.workspaces.OpenWorkspace(meta.ID); err != nil {
		return nil, err
	}
	s.activeWorkspaceID = meta.ID
	return jsonResult(meta)
}

func (s *Server) handleSetActiveWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, _ := args["workspaceId"].(string)
	if id == "" {
		return nil, fmt.Errorf("workspaceId is required")
	}
	if _, err := s.workspaces.OpenWorkspace(id); err != nil {
		return nil, err
	}
	s.activeWorkspaceID = id
	return textResult(fmt.Sprintf("Active workspace set to %s", id)), nil
}

func (s *Server) handleSaveWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, _, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	label, _ := args["label"].(string)
	if label == "" {
		label = "agent edit"
	}
	if err := s.workspaces.SaveWorkspace(id, label); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return textResult(fmt.Sprintf("Workspace %s saved", id)), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, _, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	if err := s.workspaces.Undo(id); err != nil {
		return nil, err
	}
	s.emitGraphChanged(ctx, id)
	return textResult(fmt.Sprintf("Workspace %s rolled back one step", id)), nil
}
