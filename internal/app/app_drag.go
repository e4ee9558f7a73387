package app

import (
	"fmt"

	"blockpad/internal/block"
)

// ============================================================
// Drag sessions
// ============================================================
// The frontend drives drags: one StartDrag, a DragMove per pointer frame,
// then EndDrag or CancelDrag. Candidate info comes back from each move so
// the canvas can highlight the slot the block would snap to.

// DragCandidateInfo describes the connection the dragged block would snap
// to on release, or nothing when out of range.
type DragCandidateInfo struct {
	LocalConnection  string `json:"localConnection,omitempty"`
	TargetBlockID    string `json:"targetBlockId,omitempty"`
	TargetConnection string `json:"targetConnection,omitempty"`
}

// connName renders a connection as the frontend naming: "previous", "next",
// "output" or the input name.
func connName(c *block.Connection) string {
	if in := c.Input(); in != nil {
		return in.Name()
	}
	switch c.Kind() {
	case block.KindPrevious:
		return "previous"
	case block.KindNext:
		return "next"
	case block.KindOutput:
		return "output"
	default:
		return "input"
	}
}

func (a *App) StartDrag(workspaceID, blockID string) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	b := ctl.Workspace().BlockByID(blockID)
	if b == nil {
		return fmt.Errorf("block %s not found", blockID)
	}
	return ctl.StartDrag(b)
}

func (a *App) DragMove(workspaceID string, dx, dy float64) (*DragCandidateInfo, error) {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return nil, err
	}
	if err := ctl.DragMove(dx, dy); err != nil {
		return nil, err
	}

	local, target := ctl.DragCandidate()
	if target == nil {
		return &DragCandidateInfo{}, nil
	}
	return &DragCandidateInfo{
		LocalConnection:  connName(local),
		TargetBlockID:    target.Owner().ID(),
		TargetConnection: connName(target),
	}, nil
}

func (a *App) EndDrag(workspaceID string) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	return ctl.EndDrag()
}

func (a *App) CancelDrag(workspaceID string) error {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return err
	}
	return ctl.CancelDrag()
}
