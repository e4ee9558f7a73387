package service

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blockpad/internal/block"
	"blockpad/internal/storage"
)

// Autosave runs unattended, so a failing snapshot must land in the log with
// the workspace id and must release the per-workspace guard for the next
// tick to retry.
func TestAutosaveTick_LogsFailures(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "blockpad.db"), filepath.Join(dir, "programs"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	svc := NewWorkspaceService(
		storage.NewWorkspaceStore(db),
		storage.NewUndoStore(db),
		block.NewStandardFactory(),
		&MockEmitter{},
	)
	meta, err := svc.CreateWorkspace("main")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.OpenWorkspace(meta.ID); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Every snapshot write fails from here on.
	db.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	svc.autosaveTick()
	if !strings.Contains(buf.String(), meta.ID) {
		t.Fatalf("expected the failure log to name workspace %s, got %q", meta.ID, buf.String())
	}

	buf.Reset()
	svc.autosaveTick()
	if !strings.Contains(buf.String(), meta.ID) {
		t.Fatal("second tick should retry the workspace and log again")
	}
}
