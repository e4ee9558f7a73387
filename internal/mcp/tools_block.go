package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpad/internal/block"
)

// blockSummary is the compact listing shape returned by list_blocks.
type blockSummary struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Position block.Point `json:"position"`
	Root     bool        `json:"root"`
	Parent   string      `json:"parent,omitempty"`
}

func (s *Server) registerBlockTools() {
	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List every block in a workspace with type, position and parentage"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleListBlocks)

	// ── describe_block ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("describe_block",
		mcp.WithDescription("Return the full serialized subtree of a block: fields, inputs, children"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleDescribeBlock)

	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a new block as a root on the canvas. Types: text, number, variable, compare, print, set_variable, wait, repeat, if, stop"),
		mcp.WithString("type", mcp.Description("Block type"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
		mcp.WithNumber("x", mcp.Description("X position (default 0)")),
		mcp.WithNumber("y", mcp.Description("Y position (default 0)")),
	), s.handleCreateBlock)

	// ── connect_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_blocks",
		mcp.WithDescription("Attach one block to another. childConnection is \"previous\" for statement blocks or \"output\" for value blocks; parentConnection is \"next\" or an input name like VALUE, COND, DO. Occupied slots are spliced."),
		mcp.WithString("childId", mcp.Description("Block being attached"), mcp.Required()),
		mcp.WithString("childConnection", mcp.Description("\"previous\" or \"output\""), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Block being attached to"), mcp.Required()),
		mcp.WithString("parentConnection", mcp.Description("\"next\" or an input name"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleConnectBlocks)

	// ── extract_block ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("extract_block",
		mcp.WithDescription("Detach a block from its parent and make it a root. With reattachNext, the blocks after it are healed onto the parent instead of travelling along."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithBoolean("reattachNext", mcp.Description("Heal the chain across the gap (default false)")),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleExtractBlock)

	// ── set_field ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Set a field value on a block, e.g. TEXT on a text block or OP on a compare block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("field", mcp.Description("Field name"), mcp.Required()),
		mcp.WithString("value", mcp.Description("New value"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleSetField)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a root block (and everything attached below it) to a new canvas position"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
	), s.handleMoveBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Move a root block and its subtree to the trash"),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional, defaults to active)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, ctl, err := s.resolveWorkspace(req.GetArguments())
	if err != nil {
		return nil, err
	}

	var out []blockSummary
	for _, root := range ctl.Workspace().RootBlocks() {
		for _, b := range root.Descendants() {
			sum := blockSummary{
				ID:       b.ID(),
				Type:     b.Type(),
				Position: b.Position(),
				Root:     b == root,
			}
			if p := b.ParentBlock(); p != nil {
				sum.Parent = p.ID()
			}
			out = append(out, sum)
		}
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, ctl, err := s.resolveWorkspace(req.GetArguments())
	if err != nil {
		return nil, err
	}
	b, err := blockForTool(ctl, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(block.Subtree(b))
}

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ctl, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	typ, _ := args["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("type is required")
	}

	pos := block.Point{X: getFloat(args, "x", 0), Y: getFloat(args, "y", 0)}
	b, err := ctl.AddBlock(typ, pos)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}

	s.emitGraphChanged(ctx, id)
	return jsonResult(block.Subtree(b))
}

func (s *Server) handleConnectBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ctl, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}

	childID, _ := args["childId"].(string)
	parentID, _ := args["parentId"].(string)
	childConnName, _ := args["childConnection"].(string)
	parentConnName, _ := args["parentConnection"].(string)

	child := ctl.Workspace().BlockByID(childID)
	if child == nil {
		return nil, fmt.Errorf("child block %s not found", childID)
	}
	parent := ctl.Workspace().BlockByID(parentID)
	if parent == nil {
		return nil, fmt.Errorf("parent block %s not found", parentID)
	}
	if childConnName != "previous" && childConnName != "output" {
		return nil, fmt.Errorf("childConnection must be \"previous\" or \"output\", got %q", childConnName)
	}

	childConn := connectionByName(child, childConnName)
	if childConn == nil {
		return nil, fmt.Errorf("block %s (%s) has no %s connection", childID, child.Type(), childConnName)
	}
	parentConn := connectionByName(parent, parentConnName)
	if parentConn == nil {
		return nil, fmt.Errorf("block %s (%s) has no %s connection", parentID, parent.Type(), parentConnName)
	}
	// The controller treats illegal pairs as caller bugs; validate here so
	// agents get an error instead of a crash.
	if !childConn.CanConnect(parentConn) {
		return nil, fmt.Errorf("cannot connect %s of %s to %s of %s", childConnName, child.Type(), parentConnName, parent.Type())
	}
	if !ctl.Workspace().IsRootBlock(child) {
		return nil, fmt.Errorf("block %s is not a root; extract it first", childID)
	}

	ctl.Connect(childConn, parentConn)
	s.emitGraphChanged(ctx, id)
	return textResult(fmt.Sprintf("Connected %s to %s", childID, parentID)), nil
}

func (s *Server) handleExtractBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ctl, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	b, err := blockForTool(ctl, args)
	if err != nil {
		return nil, err
	}
	if ctl.Workspace().IsRootBlock(b) {
		return nil, fmt.Errorf("block %s is already a root", b.ID())
	}
	if b.IsShadow() {
		return nil, fmt.Errorf("block %s is a shadow placeholder and cannot be extracted", b.ID())
	}
	reattach, _ := args["reattachNext"].(bool)

	ctl.ExtractBlockAsRoot(b, reattach)
	s.emitGraphChanged(ctx, id)
	return textResult(fmt.Sprintf("Block %s is now a root", b.ID())), nil
}

func (s *Server) handleSetField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ctl, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	b, err := blockForTool(ctl, args)
	if err != nil {
		return nil, err
	}
	field, _ := args["field"].(string)
	value, _ := args["value"].(string)
	if err := ctl.SetFieldValue(b, field, value); err != nil {
		return nil, err
	}
	s.emitGraphChanged(ctx, id)
	return textResult(fmt.Sprintf("Field %s on %s set to %q", field, b.ID(), value)), nil
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ctl, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	b, err := blockForTool(ctl, args)
	if err != nil {
		return nil, err
	}
	if !ctl.Workspace().IsRootBlock(b) {
		return nil, fmt.Errorf("block %s is attached; extract it before moving", b.ID())
	}

	pos := block.Point{X: getFloat(args, "x", 0), Y: getFloat(args, "y", 0)}
	if err := ctl.MoveRootBlock(b, pos); err != nil {
		return nil, err
	}
	s.emitGraphChanged(ctx, id)
	return textResult(fmt.Sprintf("Block %s moved to (%g, %g)", b.ID(), pos.X, pos.Y)), nil
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ctl, err := s.resolveWorkspace(args)
	if err != nil {
		return nil, err
	}
	b, err := blockForTool(ctl, args)
	if err != nil {
		return nil, err
	}
	if !ctl.Workspace().IsRootBlock(b) {
		return nil, fmt.Errorf("block %s is attached; extract it before deleting", b.ID())
	}
	if err := s.workspaces.TrashBlock(id, b.ID()); err != nil {
		return nil, err
	}
	s.emitGraphChanged(ctx, id)
	return textResult(fmt.Sprintf("Block %s moved to trash", b.ID())), nil
}
