package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"blockpad/internal/block"
	"blockpad/internal/codegen"
	mcpserver "blockpad/internal/mcp"
	"blockpad/internal/service"
	"blockpad/internal/storage"
	"blockpad/internal/workspace"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It initializes storage, services, and runs the MCP server until interrupted.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "blockpad")
	dbPath := filepath.Join(dataDir, "blockpad.db")

	db, err := storage.New(dbPath, filepath.Join(dataDir, "programs"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	emitter := noopEmitter{}
	workspaces := service.NewWorkspaceService(
		storage.NewWorkspaceStore(db),
		storage.NewUndoStore(db),
		block.NewStandardFactory(),
		emitter,
	)
	workspaces.SetContext(ctx)

	queue := codegen.NewQueue(func(id string) (*workspace.Workspace, error) {
		ctl, err := workspaces.OpenWorkspace(id)
		if err != nil {
			return nil, err
		}
		return ctl.Workspace(), nil
	}, filepath.Join(dataDir, "programs"), nil)

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:    emitter,
		Workspaces: workspaces,
		Queue:      queue,
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
