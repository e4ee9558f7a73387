package app

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"blockpad/internal/block"
	"blockpad/internal/codegen"
	"blockpad/internal/service"
	"blockpad/internal/storage"
	"blockpad/internal/watcher"
	"blockpad/internal/workspace"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	db      *storage.DB
	store   *storage.WorkspaceStore
	undos   *storage.UndoStore
	factory *block.Factory

	workspaces *service.WorkspaceService
	queue      *codegen.Queue
	runner     *codegen.Runner
	watch      *watcher.Watcher
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Emit implements service.EventEmitter by delegating to the Wails runtime.
func (a *App) Emit(ctx context.Context, event string, data any) {
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, event, data)
	}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "blockpad")
	dbPath := filepath.Join(dataDir, "blockpad.db")

	db, err := storage.New(dbPath, filepath.Join(dataDir, "programs"))
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}

	a.db = db
	a.store = storage.NewWorkspaceStore(db)
	a.undos = storage.NewUndoStore(db)
	a.factory = block.NewStandardFactory()

	a.workspaces = service.NewWorkspaceService(a.store, a.undos, a.factory, a)
	a.workspaces.SetContext(ctx)
	if err := a.workspaces.StartAutosave("@every 1m"); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start autosave: %v", err)
	}

	// Background code generation: results go straight to the frontend.
	a.queue = codegen.NewQueue(a.resolveGraph, filepath.Join(dataDir, "programs"), func(res codegen.Result) {
		wailsRuntime.EventsEmit(ctx, "codegen:result", res)
	})
	a.queue.Start(ctx)

	// Program runner: PTY output → base64 → frontend event
	a.runner = codegen.NewRunner(
		func(data []byte) {
			encoded := base64.StdEncoding.EncodeToString(data)
			wailsRuntime.EventsEmit(ctx, "program:data", encoded)
		},
		func(exitCode int) {
			wailsRuntime.EventsEmit(ctx, "program:exit", map[string]int{
				"exitCode": exitCode,
			})
		},
	)

	// Watch exported program files so external edits show up in the app.
	w, err := watcher.New(func(workspaceID, source string) {
		wailsRuntime.EventsEmit(ctx, "program:file-changed", map[string]string{
			"workspaceId": workspaceID,
			"source":      source,
		})
	})
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to create program watcher: %v", err)
	}
	a.watch = w
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.runner != nil {
		a.runner.Stop()
	}
	if a.queue != nil {
		a.queue.Stop()
	}
	if a.watch != nil {
		a.watch.Close()
	}
	if a.workspaces != nil {
		a.workspaces.StopAutosave(ctx)
	}
	if a.db != nil {
		a.db.Close()
	}
}

// resolveGraph hands the live graph of an open workspace to the codegen
// queue.
func (a *App) resolveGraph(workspaceID string) (*workspace.Workspace, error) {
	ctl, err := a.workspaces.Controller(workspaceID)
	if err != nil {
		return nil, err
	}
	return ctl.Workspace(), nil
}
