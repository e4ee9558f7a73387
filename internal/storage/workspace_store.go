package storage

import (
	"fmt"
	"time"
)

// WorkspaceMeta is the persisted workspace row: name, viewport and snap
// radius, but not the block graph itself (that lives in snapshots).
type WorkspaceMeta struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ViewportX    float64   `json:"viewportX"`
	ViewportY    float64   `json:"viewportY"`
	ViewportZoom float64   `json:"viewportZoom"`
	SnapRadius   float64   `json:"snapRadius"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TrashEntry is a deleted subtree retained for restore.
type TrashEntry struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	SubtreeJSON string    `json:"subtreeJson"`
	DeletedAt   time.Time `json:"deletedAt"`
}

// WorkspaceStore persists workspaces, graph snapshots and trash in SQLite.
type WorkspaceStore struct {
	db *DB
}

func NewWorkspaceStore(db *DB) *WorkspaceStore {
	return &WorkspaceStore{db: db}
}

func (s *WorkspaceStore) Create(ws *WorkspaceMeta) error {
	now := time.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now
	if ws.ViewportZoom == 0 {
		ws.ViewportZoom = 1.0
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO workspaces (id, name, viewport_x, viewport_y, viewport_zoom, snap_radius, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.Name, ws.ViewportX, ws.ViewportY, ws.ViewportZoom, ws.SnapRadius, ws.CreatedAt, ws.UpdatedAt,
	)
	return err
}

func (s *WorkspaceStore) Get(id string) (*WorkspaceMeta, error) {
	ws := &WorkspaceMeta{}
	err := s.db.conn.QueryRow(
		`SELECT id, name, viewport_x, viewport_y, viewport_zoom, snap_radius, created_at, updated_at
		 FROM workspaces WHERE id = ?`, id,
	).Scan(&ws.ID, &ws.Name, &ws.ViewportX, &ws.ViewportY, &ws.ViewportZoom, &ws.SnapRadius, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

func (s *WorkspaceStore) List() ([]WorkspaceMeta, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, viewport_x, viewport_y, viewport_zoom, snap_radius, created_at, updated_at
		 FROM workspaces ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []WorkspaceMeta
	for rows.Next() {
		var ws WorkspaceMeta
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.ViewportX, &ws.ViewportY, &ws.ViewportZoom, &ws.SnapRadius, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}

func (s *WorkspaceStore) Update(ws *WorkspaceMeta) error {
	ws.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE workspaces SET name = ?, viewport_x = ?, viewport_y = ?, viewport_zoom = ?, snap_radius = ?, updated_at = ? WHERE id = ?`,
		ws.Name, ws.ViewportX, ws.ViewportY, ws.ViewportZoom, ws.SnapRadius, ws.UpdatedAt, ws.ID,
	)
	return err
}

// Delete removes a workspace and everything hanging off it.
func (s *WorkspaceStore) Delete(id string) error {
	_, _ = s.db.conn.Exec(`DELETE FROM undo_state WHERE workspace_id = ?`, id)
	_, _ = s.db.conn.Exec(`DELETE FROM undo_nodes WHERE workspace_id = ?`, id)
	_, _ = s.db.conn.Exec(`DELETE FROM trash WHERE workspace_id = ?`, id)
	_, _ = s.db.conn.Exec(`DELETE FROM snapshots WHERE workspace_id = ?`, id)
	_, err := s.db.conn.Exec(`DELETE FROM workspaces WHERE id = ?`, id)
	return err
}

// SaveSnapshot upserts the serialized block graph for a workspace.
// graphJSON is a JSON array of root block subtrees.
func (s *WorkspaceStore) SaveSnapshot(workspaceID, graphJSON string) error {
	_, err := s.db.conn.Exec(
		`INSERT INTO snapshots (workspace_id, graph_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(workspace_id) DO UPDATE SET graph_json = excluded.graph_json, updated_at = excluded.updated_at`,
		workspaceID, graphJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the serialized graph, or "[]" for a workspace that
// has never been saved.
func (s *WorkspaceStore) LoadSnapshot(workspaceID string) (string, error) {
	var graphJSON string
	err := s.db.conn.QueryRow(
		`SELECT graph_json FROM snapshots WHERE workspace_id = ?`, workspaceID,
	).Scan(&graphJSON)
	if err != nil {
		return "[]", nil
	}
	return graphJSON, nil
}

func (s *WorkspaceStore) AddTrash(entry *TrashEntry) error {
	entry.DeletedAt = time.Now()
	_, err := s.db.conn.Exec(
		`INSERT INTO trash (id, workspace_id, subtree_json, deleted_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.WorkspaceID, entry.SubtreeJSON, entry.DeletedAt,
	)
	return err
}

func (s *WorkspaceStore) ListTrash(workspaceID string) ([]TrashEntry, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, workspace_id, subtree_json, deleted_at FROM trash
		 WHERE workspace_id = ? ORDER BY deleted_at DESC`, workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TrashEntry
	for rows.Next() {
		var e TrashEntry
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.SubtreeJSON, &e.DeletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TakeTrash removes an entry and returns it, for restore.
func (s *WorkspaceStore) TakeTrash(id string) (*TrashEntry, error) {
	e := &TrashEntry{}
	err := s.db.conn.QueryRow(
		`SELECT id, workspace_id, subtree_json, deleted_at FROM trash WHERE id = ?`, id,
	).Scan(&e.ID, &e.WorkspaceID, &e.SubtreeJSON, &e.DeletedAt)
	if err != nil {
		return nil, fmt.Errorf("take trash entry: %w", err)
	}
	if _, err := s.db.conn.Exec(`DELETE FROM trash WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *WorkspaceStore) EmptyTrash(workspaceID string) error {
	_, err := s.db.conn.Exec(`DELETE FROM trash WHERE workspace_id = ?`, workspaceID)
	return err
}
