package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// UndoNode is a single undo history entry: a full graph snapshot plus a
// label describing the mutation that produced it.
type UndoNode struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspaceId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UndoTree is the full history tree for a workspace.
type UndoTree struct {
	Nodes     []UndoNode `json:"nodes"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// UndoStore manages undo history in SQLite.
type UndoStore struct {
	db *DB
}

func NewUndoStore(db *DB) *UndoStore {
	return &UndoStore{db: db}
}

// LoadTree returns the full undo tree for a workspace, or nil when no
// history has been recorded yet.
func (s *UndoStore) LoadTree(workspaceID string) (*UndoTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, workspace_id, parent_id, label, snapshot_json, created_at
		 FROM undo_nodes WHERE workspace_id = ? ORDER BY created_at ASC`, workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo nodes: %w", err)
	}
	defer rows.Close()

	var nodes []UndoNode
	var rootID string
	for rows.Next() {
		var n UndoNode
		if err := rows.Scan(&n.ID, &n.WorkspaceID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo node: %w", err)
		}
		if n.ParentID == nil {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, nil // No tree yet
	}

	var currentID string
	err = s.db.Conn().QueryRow(
		`SELECT current_node_id FROM undo_state WHERE workspace_id = ?`, workspaceID,
	).Scan(&currentID)
	if err != nil {
		currentID = rootID // Fallback
	}

	return &UndoTree{
		Nodes:     nodes,
		CurrentID: currentID,
		RootID:    rootID,
	}, nil
}

// PushNode creates a new undo node under the specified parent and moves the
// current pointer to it. An empty parentID makes it a root node.
func (s *UndoStore) PushNode(workspaceID, nodeID, parentID, label, snapshotJSON string) (*UndoNode, error) {
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_nodes (id, workspace_id, parent_id, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nodeID, workspaceID, pID, label, snapshotJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert undo node: %w", err)
	}

	_, err = s.db.Conn().Exec(
		`INSERT INTO undo_state (workspace_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(workspace_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		workspaceID, nodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("update undo state: %w", err)
	}

	s.pruneIfNeeded(workspaceID, 40)

	return &UndoNode{
		ID:           nodeID,
		WorkspaceID:  workspaceID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    now,
	}, nil
}

// GoTo updates the current position pointer.
func (s *UndoStore) GoTo(workspaceID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_state (workspace_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(workspace_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		workspaceID, nodeID,
	)
	return err
}

// Snapshot returns the graph snapshot stored on a node.
func (s *UndoStore) Snapshot(nodeID string) (string, error) {
	var snapshotJSON string
	err := s.db.Conn().QueryRow(
		`SELECT snapshot_json FROM undo_nodes WHERE id = ?`, nodeID,
	).Scan(&snapshotJSON)
	if err != nil {
		return "", fmt.Errorf("load undo snapshot: %w", err)
	}
	return snapshotJSON, nil
}

// ClearWorkspace removes all undo data for a workspace.
func (s *UndoStore) ClearWorkspace(workspaceID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM undo_state WHERE workspace_id = ?`, workspaceID)
	_, err := s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE workspace_id = ?`, workspaceID)
	return err
}

// pruneIfNeeded removes oldest nodes when count exceeds maxNodes.
func (s *UndoStore) pruneIfNeeded(workspaceID string, maxNodes int) {
	var count int
	s.db.Conn().QueryRow(`SELECT COUNT(*) FROM undo_nodes WHERE workspace_id = ?`, workspaceID).Scan(&count)
	if count <= maxNodes {
		return
	}

	toDelete := count - maxNodes

	// Get current node BEFORE opening rows cursor (avoid nested query deadlock)
	var currentID string
	s.db.Conn().QueryRow(`SELECT current_node_id FROM undo_state WHERE workspace_id = ?`, workspaceID).Scan(&currentID)

	rows, err := s.db.Conn().Query(
		`SELECT id FROM undo_nodes WHERE workspace_id = ?
		 ORDER BY created_at ASC LIMIT ?`, workspaceID, toDelete,
	)
	if err != nil {
		return
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		if id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	// Reparent children onto the deleted node's parent so the tree stays
	// connected, then drop the node.
	for _, id := range ids {
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM undo_nodes WHERE id = ?`, id).Scan(&parentID)

		if parentID.Valid {
			s.db.Conn().Exec(
				`UPDATE undo_nodes SET parent_id = ? WHERE parent_id = ?`,
				parentID.String, id,
			)
		} else {
			s.db.Conn().Exec(
				`UPDATE undo_nodes SET parent_id = NULL WHERE parent_id = ?`, id,
			)
		}

		s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE id = ?`, id)
	}
}
