package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"blockpad/internal/block"
	"blockpad/internal/service"
	"blockpad/internal/storage"
)

func newTestService(t *testing.T) (*service.WorkspaceService, *service.MockEmitter) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "blockpad.db"), filepath.Join(dir, "programs"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	svc := service.NewWorkspaceService(
		storage.NewWorkspaceStore(db),
		storage.NewUndoStore(db),
		block.NewStandardFactory(),
		emitter,
	)
	return svc, emitter
}

func countEvents(m *service.MockEmitter, name string) int {
	n := 0
	for _, e := range m.Events {
		if e.Event == name {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────
// WorkspaceService
// ─────────────────────────────────────────────────────────────

func TestWorkspaceService_GraphSurvivesReopen(t *testing.T) {
	svc, _ := newTestService(t)

	meta, err := svc.CreateWorkspace("main")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ctl, err := svc.OpenWorkspace(meta.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	b, err := ctl.AddBlock("print", block.Point{X: 10, Y: 20})
	if err != nil {
		t.Fatalf("add block: %v", err)
	}
	if err := svc.SaveWorkspace(meta.ID, "add print"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.CloseWorkspace(meta.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	ctl2, err := svc.OpenWorkspace(meta.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if ctl2 == ctl {
		t.Fatal("reopen should build a fresh controller")
	}
	got := ctl2.Workspace().BlockByID(b.ID())
	if got == nil || got.Type() != "print" {
		t.Fatal("saved block missing after reopen")
	}
	if pos := got.Position(); pos.X != 10 || pos.Y != 20 {
		t.Fatalf("position lost across reopen: %+v", pos)
	}
}

func TestWorkspaceService_ForwardsControllerBatches(t *testing.T) {
	svc, emitter := newTestService(t)

	meta, _ := svc.CreateWorkspace("w")
	ctl, err := svc.OpenWorkspace(meta.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := ctl.AddBlock("print", block.Point{}); err != nil {
		t.Fatalf("add block: %v", err)
	}

	if countEvents(emitter, service.EventGraphChanged) != 1 {
		t.Fatalf("expected one graph-changed emission, got %d", len(emitter.Events))
	}
	payload, ok := emitter.Events[0].Data.(service.GraphChangedPayload)
	if !ok || payload.WorkspaceID != meta.ID || len(payload.Events) == 0 {
		t.Fatalf("unexpected payload: %+v", emitter.Events[0].Data)
	}
}

func TestWorkspaceService_UndoRestoresPreviousGraph(t *testing.T) {
	svc, emitter := newTestService(t)

	meta, _ := svc.CreateWorkspace("w")
	ctl, err := svc.OpenWorkspace(meta.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := svc.SaveWorkspace(meta.ID, "initial"); err != nil {
		t.Fatalf("save initial: %v", err)
	}
	if _, err := ctl.AddBlock("print", block.Point{}); err != nil {
		t.Fatalf("add block: %v", err)
	}
	if err := svc.SaveWorkspace(meta.ID, "add print"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := svc.Undo(meta.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := len(ctl.Workspace().RootBlocks()); got != 0 {
		t.Fatalf("undo should restore the empty graph, got %d roots", got)
	}
	if countEvents(emitter, service.EventWorkspaceReloaded) != 1 {
		t.Fatal("undo should announce a full reload")
	}

	// Stepping past the root is refused.
	if err := svc.Undo(meta.ID); err == nil {
		t.Fatal("expected error undoing past the first snapshot")
	}

	tree, err := svc.UndoTree(meta.ID)
	if err != nil || tree == nil {
		t.Fatalf("load tree: %v", err)
	}
	if tree.CurrentID != tree.RootID {
		t.Fatal("current pointer should sit on the root after undo")
	}
}

func TestWorkspaceService_TrashSurvivesReopen(t *testing.T) {
	svc, _ := newTestService(t)

	meta, _ := svc.CreateWorkspace("w")
	ctl, err := svc.OpenWorkspace(meta.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := ctl.AddBlock("print", block.Point{X: 5, Y: 5})
	if err := svc.TrashBlock(meta.ID, b.ID()); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if err := svc.CloseWorkspace(meta.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	ctl2, err := svc.OpenWorkspace(meta.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entries, err := svc.ListTrash(meta.ID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one persisted trash entry, got %d (%v)", len(entries), err)
	}

	if err := svc.RestoreTrash(meta.ID, b.ID()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	restored := ctl2.Workspace().BlockByID(b.ID())
	if restored == nil || restored.Type() != "print" {
		t.Fatal("restored block missing from the graph")
	}
	entries, _ = svc.ListTrash(meta.ID)
	if len(entries) != 0 {
		t.Fatal("restore should consume the trash row")
	}
}

func TestWorkspaceService_DeleteClearsEverything(t *testing.T) {
	svc, _ := newTestService(t)

	meta, _ := svc.CreateWorkspace("w")
	if _, err := svc.OpenWorkspace(meta.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := svc.SaveWorkspace(meta.ID, "initial"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := svc.DeleteWorkspace(meta.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Controller(meta.ID); err == nil {
		t.Fatal("deleted workspace should no longer be open")
	}
	tree, err := svc.UndoTree(meta.ID)
	if err != nil || tree != nil {
		t.Fatalf("expected empty history after delete, got %+v (%v)", tree, err)
	}
	list, _ := svc.ListWorkspaces()
	if len(list) != 0 {
		t.Fatal("workspace row should be gone")
	}
}

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("job-1") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("job-2") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	g.Unlock("job-1")
	g.Unlock("job-2")

	if !g.TryLock("job-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("job-1")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}
