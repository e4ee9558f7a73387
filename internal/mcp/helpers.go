package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpad/internal/block"
	"blockpad/internal/workspace"
)

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// getFloat reads a float argument with a default.
func getFloat(args map[string]any, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

func boolPtr(v bool) *bool { return &v }

// resolveWorkspace returns the controller for the workspaceId argument,
// falling back to the active workspace. The workspace is opened on demand.
func (s *Server) resolveWorkspace(args map[string]any) (string, *workspace.Controller, error) {
	id, _ := args["workspaceId"].(string)
	if id == "" {
		id = s.activeWorkspaceID
	}
	if id == "" {
		return "", nil, fmt.Errorf("no workspaceId given and no active workspace set (use set_active_workspace)")
	}
	ctl, err := s.workspaces.OpenWorkspace(id)
	if err != nil {
		return "", nil, err
	}
	return id, ctl, nil
}

// blockForTool finds a block by the blockId argument.
func blockForTool(ctl *workspace.Controller, args map[string]any) (*block.Block, error) {
	id, _ := args["blockId"].(string)
	if id == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	b := ctl.Workspace().BlockByID(id)
	if b == nil {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return b, nil
}

// connectionByName maps a connection name to the block's connection:
// "previous", "next", "output", or an input name for slots.
func connectionByName(b *block.Block, name string) *block.Connection {
	switch name {
	case "previous":
		return b.PreviousConnection()
	case "next":
		return b.NextConnection()
	case "output":
		return b.OutputConnection()
	default:
		if in := b.Input(name); in != nil {
			return in.Connection()
		}
		return nil
	}
}
