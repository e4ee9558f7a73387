package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpad/internal/workspace"
)

func (s *Server) registerResources() {
	// ── blockpad://workspaces ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"blockpad://workspaces",
		"All Workspaces",
		mcp.WithMIMEType("application/json"),
	), s.handleWorkspacesResource)

	// ── blockpad://workspace/{workspaceId}/graph ───────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"blockpad://workspace/{workspaceId}/graph",
			"Workspace Block Graph",
		),
		s.handleGraphResource,
	)
}

func (s *Server) handleWorkspacesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.workspaces.ListWorkspaces()
	if err != nil {
		return nil, err
	}

	type workspaceSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var summaries []workspaceSummary
	for _, w := range list {
		summaries = append(summaries, workspaceSummary{ID: w.ID, Name: w.Name})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "blockpad://workspaces",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleGraphResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	workspaceID := extractWorkspaceIDFromURI(uri)
	if workspaceID == "" {
		return nil, fmt.Errorf("could not extract workspaceId from URI: %s", uri)
	}

	ctl, err := s.workspaces.OpenWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	graphJSON, err := workspace.MarshalGraph(ctl.Workspace())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     graphJSON,
		},
	}, nil
}

// extractWorkspaceIDFromURI extracts the id from
// "blockpad://workspace/{id}/graph".
func extractWorkspaceIDFromURI(uri string) string {
	const prefix = "blockpad://workspace/"
	const suffix = "/graph"
	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
}
