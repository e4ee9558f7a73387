package app

import (
	"encoding/json"

	"blockpad/internal/storage"
	"blockpad/internal/workspace"
)

// ============================================================
// Workspaces
// ============================================================

// WorkspaceState is everything the frontend needs to render a workspace.
type WorkspaceState struct {
	Meta  storage.WorkspaceMeta `json:"meta"`
	Graph json.RawMessage       `json:"graph"`
}

func (a *App) ListWorkspaces() ([]storage.WorkspaceMeta, error) {
	return a.workspaces.ListWorkspaces()
}

func (a *App) CreateWorkspace(name string) (*storage.WorkspaceMeta, error) {
	return a.workspaces.CreateWorkspace(name)
}

// OpenWorkspace loads a workspace and returns its metadata plus the full
// serialized graph. Subsequent mutations arrive as event batches.
func (a *App) OpenWorkspace(id string) (*WorkspaceState, error) {
	ctl, err := a.workspaces.OpenWorkspace(id)
	if err != nil {
		return nil, err
	}
	meta, err := a.store.Get(id)
	if err != nil {
		return nil, err
	}
	graphJSON, err := workspace.MarshalGraph(ctl.Workspace())
	if err != nil {
		return nil, err
	}
	if a.watch != nil {
		a.watch.WatchProgram(id, a.queue.ProgramPath(id))
	}
	return &WorkspaceState{
		Meta:  *meta,
		Graph: json.RawMessage(graphJSON),
	}, nil
}

func (a *App) CloseWorkspace(id string) error {
	if a.watch != nil {
		a.watch.StopWatching(id)
	}
	return a.workspaces.CloseWorkspace(id)
}

func (a *App) SaveWorkspace(id, label string) error {
	return a.workspaces.SaveWorkspace(id, label)
}

func (a *App) RenameWorkspace(id, name string) error {
	return a.workspaces.RenameWorkspace(id, name)
}

func (a *App) DeleteWorkspace(id string) error {
	if a.watch != nil {
		a.watch.StopWatching(id)
	}
	return a.workspaces.DeleteWorkspace(id)
}

func (a *App) UpdateViewport(id string, x, y, zoom float64) error {
	return a.workspaces.UpdateViewport(id, x, y, zoom)
}

// ============================================================
// Undo history
// ============================================================

func (a *App) UndoTree(id string) (*storage.UndoTree, error) {
	return a.workspaces.UndoTree(id)
}

func (a *App) Undo(id string) error {
	return a.workspaces.Undo(id)
}

func (a *App) GoToUndoNode(id, nodeID string) error {
	return a.workspaces.GoToUndoNode(id, nodeID)
}

// ============================================================
// Trash
// ============================================================

func (a *App) ListTrash(id string) ([]storage.TrashEntry, error) {
	return a.workspaces.ListTrash(id)
}

func (a *App) RestoreTrash(id, trashID string) error {
	return a.workspaces.RestoreTrash(id, trashID)
}

func (a *App) EmptyTrash(id string) error {
	return a.workspaces.EmptyTrash(id)
}
