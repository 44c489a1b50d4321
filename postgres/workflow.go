package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pipeboard/pipeboard"
)

// CreateWorkflow saves a full workflow (metadata + nodes + edges) in one
// transaction. Nodes and edges without IDs get auto-generated UUIDs. Edge
// endpoints must reference nodes in the workflow.
// Returns the workflow with all IDs and timestamps filled in.
func (s *PGStore) CreateWorkflow(ctx context.Context, w *pipeboard.Workflow) (*pipeboard.Workflow, error) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == "" {
			w.Nodes[i].ID = uuid.NewString()
		}
	}
	for i := range w.Edges {
		if w.Edges[i].ID == "" {
			w.Edges[i].ID = uuid.NewString()
		}
	}
	if err := pipeboard.ValidateEdges(w.Nodes, w.Edges); err != nil {
		return nil, err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO workflows (id, name, description) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		w.ID, w.Name, w.Description,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: insert workflow: %w", err)
	}

	if err := insertGraph(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pipeboard: commit: %w", err)
	}
	return w, nil
}

// GetWorkflow retrieves a full workflow by its ID.
// Returns nil, nil if it does not exist.
func (s *PGStore) GetWorkflow(ctx context.Context, id string) (*pipeboard.Workflow, error) {
	w := &pipeboard.Workflow{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT name, description, created_at, updated_at FROM workflows WHERE id = $1`, id,
	).Scan(&w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeboard: get workflow: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, type, pos_x, pos_y, data FROM workflow_nodes WHERE workflow_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: query nodes: %w", err)
	}
	defer rows.Close()

	w.Nodes = []pipeboard.Node{}
	for rows.Next() {
		var (
			n   pipeboard.Node
			raw []byte
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Position.X, &n.Position.Y, &raw); err != nil {
			return nil, fmt.Errorf("pipeboard: scan node: %w", err)
		}
		if n.Data, err = pipeboard.DecodePayload(n.Type, raw); err != nil {
			return nil, err
		}
		w.Nodes = append(w.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT id, source, target, source_handle, target_handle, type
		 FROM workflow_edges WHERE workflow_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: query edges: %w", err)
	}
	defer rows.Close()

	w.Edges = []pipeboard.Edge{}
	for rows.Next() {
		var e pipeboard.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle, &e.Type); err != nil {
			return nil, fmt.Errorf("pipeboard: scan edge: %w", err)
		}
		w.Edges = append(w.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows edges: %w", err)
	}

	return w, nil
}

// SaveWorkflow replaces a workflow's metadata and graph wholesale.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *PGStore) SaveWorkflow(ctx context.Context, w *pipeboard.Workflow) error {
	if err := pipeboard.ValidateEdges(w.Nodes, w.Edges); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pipeboard: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE workflows SET name = $1, description = $2, updated_at = NOW() WHERE id = $3`,
		w.Name, w.Description, w.ID)
	if err != nil {
		return fmt.Errorf("pipeboard: update workflow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeboard.ErrWorkflowNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workflow_edges WHERE workflow_id = $1`, w.ID); err != nil {
		return fmt.Errorf("pipeboard: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_nodes WHERE workflow_id = $1`, w.ID); err != nil {
		return fmt.Errorf("pipeboard: delete nodes: %w", err)
	}
	if err := insertGraph(ctx, tx, w); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteWorkflow removes a workflow; its nodes and edges are cascade-deleted
// by the DB. No error if the workflow doesn't exist.
func (s *PGStore) DeleteWorkflow(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pipeboard: delete workflow: %w", err)
	}
	return nil
}

// ListWorkflows returns workflow metadata (no graphs), ordered by created_at.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListWorkflows(ctx context.Context) ([]pipeboard.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM workflows ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []pipeboard.Workflow{}
	for rows.Next() {
		var w pipeboard.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pipeboard: scan workflow: %w", err)
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows workflows: %w", err)
	}

	return workflows, nil
}

func insertGraph(ctx context.Context, tx pgx.Tx, w *pipeboard.Workflow) error {
	for i, n := range w.Nodes {
		data, err := n.Data.Payload()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_nodes (id, workflow_id, type, pos_x, pos_y, data, seq)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			n.ID, w.ID, n.Type, n.Position.X, n.Position.Y, data, i,
		); err != nil {
			return fmt.Errorf("pipeboard: insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range w.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_edges (id, workflow_id, source, target, source_handle, target_handle, type, seq)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, w.ID, e.Source, e.Target, e.SourceHandle, e.TargetHandle, e.Type, i,
		); err != nil {
			return fmt.Errorf("pipeboard: insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}
