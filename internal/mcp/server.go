package mcpserver

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"blockpad/internal/codegen"
	"blockpad/internal/service"
)

// EventEmitter mirrors service.EventEmitter so the MCP layer can notify the
// frontend without importing wailsRuntime.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Server is the MCP server for the block editor.
// It exposes tools so AI agents can read and mutate block programs.
type Server struct {
	mcp     *server.MCPServer
	emitter EventEmitter

	// Services (injected from app layer)
	workspaces *service.WorkspaceService
	queue      *codegen.Queue

	// Active workspace context (set by set_active_workspace tool)
	activeWorkspaceID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter    EventEmitter
	Workspaces *service.WorkspaceService
	Queue      *codegen.Queue
}

// New creates and configures a new MCP server with all tools.
func New(ctx context.Context, deps Deps) *Server {
	s := &Server{
		emitter:    deps.Emitter,
		workspaces: deps.Workspaces,
		queue:      deps.Queue,
	}

	s.mcp = server.NewMCPServer(
		"blockpad-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerWorkspaceTools()
	s.registerBlockTools()
	s.registerCodeTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// emitGraphChanged notifies the frontend that an agent mutated a workspace.
func (s *Server) emitGraphChanged(ctx context.Context, workspaceID string) {
	s.emitter.Emit(ctx, "mcp:graph-changed", map[string]string{"workspaceId": workspaceID})
}
