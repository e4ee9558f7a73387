package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"blockpad/internal/block"
	"blockpad/internal/storage"
	"blockpad/internal/workspace"
)

// ─────────────────────────────────────────────────────────────
// Workspace Service — lifecycle, persistence, undo history
// ─────────────────────────────────────────────────────────────

// Frontend event names.
const (
	EventGraphChanged      = "workspace:graph-changed"
	EventWorkspaceReloaded = "workspace:reloaded"
	EventWorkspaceSaved    = "workspace:saved"
)

// GraphChangedPayload carries one controller event batch to the frontend.
type GraphChangedPayload struct {
	WorkspaceID string            `json:"workspaceId"`
	Events      []workspace.Event `json:"events"`
}

// openWorkspace pairs an in-memory graph with its persisted row.
type openWorkspace struct {
	meta *storage.WorkspaceMeta
	ws   *workspace.Workspace
	ctl  *workspace.Controller
}

// WorkspaceService manages workspace lifecycle: create/open/save/delete,
// trash persistence and the undo history tree. Open workspaces live in
// memory; every mutation flows through their Controller so the frontend
// sees whole batches.
type WorkspaceService struct {
	store   *storage.WorkspaceStore
	undo    *storage.UndoStore
	factory *block.Factory
	emitter EventEmitter
	ctx     context.Context

	mu   sync.Mutex
	open map[string]*openWorkspace

	cron  *cron.Cron
	guard runningJobsGuard
}

// NewWorkspaceService creates a WorkspaceService.
func NewWorkspaceService(
	store *storage.WorkspaceStore,
	undo *storage.UndoStore,
	factory *block.Factory,
	emitter EventEmitter,
) *WorkspaceService {
	return &WorkspaceService{
		store:   store,
		undo:    undo,
		factory: factory,
		emitter: emitter,
		ctx:     context.Background(),
		open:    make(map[string]*openWorkspace),
	}
}

// SetContext sets the context used for event emission. Called once from the
// app layer on startup.
func (s *WorkspaceService) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// ── Lifecycle ──────────────────────────────────────────────

func (s *WorkspaceService) ListWorkspaces() ([]storage.WorkspaceMeta, error) {
	return s.store.List()
}

func (s *WorkspaceService) CreateWorkspace(name string) (*storage.WorkspaceMeta, error) {
	meta := &storage.WorkspaceMeta{
		ID:         uuid.New().String(),
		Name:       name,
		SnapRadius: workspace.DefaultSnapRadius,
	}
	if err := s.store.Create(meta); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := s.store.SaveSnapshot(meta.ID, "[]"); err != nil {
		return nil, err
	}
	return meta, nil
}

// OpenWorkspace loads a workspace into memory and returns its controller.
// Opening an already-open workspace returns the live controller.
func (s *WorkspaceService) OpenWorkspace(id string) (*workspace.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ow, ok := s.open[id]; ok {
		return ow.ctl, nil
	}

	meta, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	graphJSON, err := s.store.LoadSnapshot(id)
	if err != nil {
		return nil, err
	}

	ws := workspace.New(meta.Name, s.factory)
	ws.SetID(meta.ID)
	ws.SetSnapRadius(meta.SnapRadius)
	if err := workspace.LoadGraph(ws, graphJSON); err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", id, err)
	}

	ctl := workspace.NewController(ws, nil)
	ctl.AddCallback(workspace.CallbackFunc(func(events []workspace.Event) {
		s.emitter.Emit(s.ctx, EventGraphChanged, GraphChangedPayload{
			WorkspaceID: id,
			Events:      events,
		})
	}), workspace.EventAll)

	s.open[id] = &openWorkspace{meta: meta, ws: ws, ctl: ctl}
	return ctl, nil
}

// Controller returns the controller of an open workspace.
func (s *WorkspaceService) Controller(id string) (*workspace.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ow, ok := s.open[id]
	if !ok {
		return nil, fmt.Errorf("workspace %s is not open", id)
	}
	return ow.ctl, nil
}

// CloseWorkspace saves the graph and drops the in-memory state.
func (s *WorkspaceService) CloseWorkspace(id string) error {
	if err := s.saveSnapshot(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()
	return nil
}

// DeleteWorkspace removes a workspace and all of its persisted state.
func (s *WorkspaceService) DeleteWorkspace(id string) error {
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()
	if err := s.undo.ClearWorkspace(id); err != nil {
		return err
	}
	return s.store.Delete(id)
}

// RenameWorkspace updates the display name.
func (s *WorkspaceService) RenameWorkspace(id, name string) error {
	meta, err := s.store.Get(id)
	if err != nil {
		return err
	}
	meta.Name = name
	if err := s.store.Update(meta); err != nil {
		return err
	}
	s.mu.Lock()
	if ow, ok := s.open[id]; ok {
		ow.meta.Name = name
	}
	s.mu.Unlock()
	return nil
}

// UpdateViewport persists the scroll/zoom state.
func (s *WorkspaceService) UpdateViewport(id string, x, y, zoom float64) error {
	meta, err := s.store.Get(id)
	if err != nil {
		return err
	}
	meta.ViewportX = x
	meta.ViewportY = y
	meta.ViewportZoom = zoom
	return s.store.Update(meta)
}

// ── Saving and undo history ────────────────────────────────

// saveSnapshot writes the current graph of an open workspace without
// touching undo history. Autosave uses this path.
func (s *WorkspaceService) saveSnapshot(id string) error {
	s.mu.Lock()
	ow, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("workspace %s is not open", id)
	}
	graphJSON, err := workspace.MarshalGraph(ow.ws)
	if err != nil {
		return err
	}
	return s.store.SaveSnapshot(id, graphJSON)
}

// SaveWorkspace snapshots the graph and records an undo node labelled with
// the mutation that prompted the save.
func (s *WorkspaceService) SaveWorkspace(id, label string) error {
	s.mu.Lock()
	ow, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("workspace %s is not open", id)
	}

	graphJSON, err := workspace.MarshalGraph(ow.ws)
	if err != nil {
		return err
	}
	if err := s.store.SaveSnapshot(id, graphJSON); err != nil {
		return err
	}

	parentID := ""
	if tree, err := s.undo.LoadTree(id); err == nil && tree != nil {
		parentID = tree.CurrentID
	}
	if _, err := s.undo.PushNode(id, uuid.New().String(), parentID, label, graphJSON); err != nil {
		return err
	}

	s.emitter.Emit(s.ctx, EventWorkspaceSaved, id)
	return nil
}

// UndoTree returns the history tree for a workspace.
func (s *WorkspaceService) UndoTree(id string) (*storage.UndoTree, error) {
	return s.undo.LoadTree(id)
}

// GoToUndoNode replaces the live graph with the snapshot stored on a
// history node and moves the current pointer there.
func (s *WorkspaceService) GoToUndoNode(id, nodeID string) error {
	s.mu.Lock()
	ow, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("workspace %s is not open", id)
	}

	snapshot, err := s.undo.Snapshot(nodeID)
	if err != nil {
		return err
	}

	workspace.ClearGraph(ow.ws)
	if err := workspace.LoadGraph(ow.ws, snapshot); err != nil {
		return fmt.Errorf("restore undo snapshot: %w", err)
	}
	if err := s.undo.GoTo(id, nodeID); err != nil {
		return err
	}
	if err := s.store.SaveSnapshot(id, snapshot); err != nil {
		return err
	}

	s.emitter.Emit(s.ctx, EventWorkspaceReloaded, id)
	return nil
}

// Undo steps to the parent of the current history node.
func (s *WorkspaceService) Undo(id string) error {
	tree, err := s.undo.LoadTree(id)
	if err != nil {
		return err
	}
	if tree == nil {
		return fmt.Errorf("workspace %s has no history", id)
	}
	for _, n := range tree.Nodes {
		if n.ID == tree.CurrentID {
			if n.ParentID == nil {
				return fmt.Errorf("nothing to undo")
			}
			return s.GoToUndoNode(id, *n.ParentID)
		}
	}
	return fmt.Errorf("current history node %s not found", tree.CurrentID)
}

// ── Trash ──────────────────────────────────────────────────

// TrashBlock moves a root block to the trash, both in memory and in the
// database so it survives a restart.
func (s *WorkspaceService) TrashBlock(id, blockID string) error {
	s.mu.Lock()
	ow, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("workspace %s is not open", id)
	}

	b := ow.ws.BlockByID(blockID)
	if b == nil {
		return fmt.Errorf("block %s not found", blockID)
	}
	if err := ow.ctl.TrashRootBlock(b); err != nil {
		return err
	}

	trash := ow.ws.Trash()
	node := trash[len(trash)-1]
	subtreeJSON, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshal trash subtree: %w", err)
	}
	return s.store.AddTrash(&storage.TrashEntry{
		ID:          node.ID,
		WorkspaceID: id,
		SubtreeJSON: string(subtreeJSON),
	})
}

// ListTrash returns the persisted trash entries for a workspace.
func (s *WorkspaceService) ListTrash(id string) ([]storage.TrashEntry, error) {
	return s.store.ListTrash(id)
}

// RestoreTrash brings a trashed subtree back as a root block. The entry may
// come from the current session's in-memory trash or from a previous run.
func (s *WorkspaceService) RestoreTrash(id, trashID string) error {
	s.mu.Lock()
	ow, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("workspace %s is not open", id)
	}

	entry, err := s.store.TakeTrash(trashID)
	if err != nil {
		return err
	}

	// Same-session entries are still indexed in the in-memory trash.
	for i, node := range ow.ws.Trash() {
		if node.ID == trashID {
			_, err := ow.ctl.RestoreFromTrash(i)
			return err
		}
	}

	var node block.SubtreeNode
	if err := json.Unmarshal([]byte(entry.SubtreeJSON), &node); err != nil {
		return fmt.Errorf("unmarshal trash subtree: %w", err)
	}
	ow.ws.AddTrash(&node)
	_, err = ow.ctl.RestoreFromTrash(len(ow.ws.Trash()) - 1)
	return err
}

// EmptyTrash discards all persisted trash for a workspace.
func (s *WorkspaceService) EmptyTrash(id string) error {
	return s.store.EmptyTrash(id)
}

// ── Autosave ───────────────────────────────────────────────

// StartAutosave begins snapshotting every open workspace on a cron
// schedule, e.g. "@every 1m".
func (s *WorkspaceService) StartAutosave(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("autosave already running")
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, s.autosaveTick); err != nil {
		return fmt.Errorf("schedule autosave: %w", err)
	}
	c.Start()
	s.cron = c
	return nil
}

// StopAutosave stops the autosave schedule and waits for in-flight saves.
func (s *WorkspaceService) StopAutosave(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
	s.guard.WaitAll(ctx)
}

func (s *WorkspaceService) autosaveTick() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		jobID := "autosave:" + id
		if !s.guard.TryLock(jobID) {
			continue // previous tick still saving this workspace
		}
		if err := s.saveSnapshot(id); err != nil {
			log.Printf("[Autosave] workspace %s: %v", id, err)
		}
		s.guard.Unlock(jobID)
	}
}
