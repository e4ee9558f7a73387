package app

import (
	"fmt"

	"blockpad/internal/block"
)

// ============================================================
// Block mutations
// ============================================================
// Every mutation goes through the workspace controller, so the frontend
// receives one "workspace:graph-changed" batch per call.

// connByName maps a frontend connection name ("previous", "next", "output"
// or an input name) to the block's connection.
func connByName(b *block.Block, name string) *block.Connection {
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

func (a *App) AddBlock(workspaceID, typ string, x, y float64) (*block.SubtreeNode, error) {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return nil, err
	}
	b, err := ctl.AddBlock(typ, block.Point{X: x, Y: y})
	if err != nil {
		return nil, err
	}
	return block.Subtree(b), nil
}

func (a *App) DescribeBlock(workspaceID, blockID string) (*block.SubtreeNode, error) {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return nil, err
	}
	b := ctl.Workspace().BlockByID(blockID)
	if b == nil {
		return nil, fmt.Errorf("block %s not found", blockID)
	}
	return block.Subtree(b), nil
}

// ConnectBlocks attaches childID to parentID. childConn names the child's
// side ("previous" or "output"); parentConn names the parent's side ("next"
// or an input name). Occupied slots are spliced, displaced blocks bumped.
func (a *App) ConnectBlocks(workspaceID, childID, childConn, parentID, parentConn string) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	child := ctl.Workspace().BlockByID(childID)
	if child == nil {
		return fmt.Errorf("block %s not found", childID)
	}
	parent := ctl.Workspace().BlockByID(parentID)
	if parent == nil {
		return fmt.Errorf("block %s not found", parentID)
	}

	cc := connByName(child, childConn)
	if cc == nil {
		return fmt.Errorf("block %s has no %s connection", childID, childConn)
	}
	pc := connByName(parent, parentConn)
	if pc == nil {
		return fmt.Errorf("block %s has no %s connection", parentID, parentConn)
	}
	if !cc.CanConnect(pc) {
		return fmt.Errorf("cannot connect %s of %s to %s of %s", childConn, child.Type(), parentConn, parent.Type())
	}
	if !ctl.Workspace().IsRootBlock(child) {
		return fmt.Errorf("block %s is not a root; extract it first", childID)
	}

	ctl.Connect(cc, pc)
	return nil
}

// ExtractBlock detaches a block from its parent and makes it a root. With
// reattachNext, the blocks after it are healed onto the parent.
func (a *App) ExtractBlock(workspaceID, blockID string, reattachNext bool) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	b := ctl.Workspace().BlockByID(blockID)
	if b == nil {
		return fmt.Errorf("block %s not found", blockID)
	}
	if ctl.Workspace().IsRootBlock(b) {
		return fmt.Errorf("block %s is already a root", blockID)
	}
	if b.IsShadow() {
		return fmt.Errorf("block %s is a shadow placeholder", blockID)
	}
	ctl.ExtractBlockAsRoot(b, reattachNext)
	return nil
}

func (a *App) SetField(workspaceID, blockID, field, value string) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	b := ctl.Workspace().BlockByID(blockID)
	if b == nil {
		return fmt.Errorf("block %s not found", blockID)
	}
	return ctl.SetFieldValue(b, field, value)
}

func (a *App) MoveBlock(workspaceID, blockID string, x, y float64) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	b := ctl.Workspace().BlockByID(blockID)
	if b == nil {
		return fmt.Errorf("block %s not found", blockID)
	}
	if !ctl.Workspace().IsRootBlock(b) {
		return fmt.Errorf("block %s is attached; drag or extract it instead", blockID)
	}
	return ctl.MoveRootBlock(b, block.Point{X: x, Y: y})
}

func (a *App) TrashBlock(workspaceID, blockID string) error {
	return a.workspaces.TrashBlock(workspaceID, blockID)
}

// ============================================================
// Variables
// ============================================================

func (a *App) RegisterVariable(workspaceID, name string) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	ctl.Workspace().RegisterVariable(name)
	return nil
}

func (a *App) Variables(workspaceID string) ([]string, error) {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return nil, err
	}
	return ctl.Workspace().Variables(), nil
}
