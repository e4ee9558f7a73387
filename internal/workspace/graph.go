package workspace

import (
	"encoding/json"
	"fmt"

	"blockpad/internal/block"
)

// ─────────────────────────────────────────────────────────────
// Whole-graph serialization — save, load, undo snapshots
// ─────────────────────────────────────────────────────────────

// MarshalGraph serializes every root subtree as a JSON array, in root list
// order.
func MarshalGraph(ws *Workspace) (string, error) {
	nodes := make([]*block.SubtreeNode, 0, len(ws.roots))
	for _, root := range ws.roots {
		nodes = append(nodes, block.Subtree(root))
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(data), nil
}

// LoadGraph rebuilds the root blocks from a serialized graph. The workspace
// must be empty; use ClearGraph first when replacing an existing graph.
func LoadGraph(ws *Workspace, graphJSON string) error {
	if len(ws.roots) != 0 {
		panic("workspace: LoadGraph on a non-empty workspace")
	}
	var nodes []*block.SubtreeNode
	if err := json.Unmarshal([]byte(graphJSON), &nodes); err != nil {
		return fmt.Errorf("unmarshal graph: %w", err)
	}
	for _, node := range nodes {
		b, err := block.Restore(ws.factory, node)
		if err != nil {
			return fmt.Errorf("restore root %s: %w", node.ID, err)
		}
		ws.AddRootBlock(b)
		ws.manager.AddSubtree(b)
	}
	return nil
}

// ClearGraph removes every root block and its index entries. Trash and
// variables survive.
func ClearGraph(ws *Workspace) {
	for _, root := range ws.roots {
		ws.manager.RemoveSubtree(root)
	}
	ws.roots = nil
}
