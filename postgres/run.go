package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pipeboard/pipeboard"
)

// CreateRun inserts a run record. An empty ID gets an auto-generated UUID.
func (s *PGStore) CreateRun(ctx context.Context, r *pipeboard.Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	nodeStatus, err := json.Marshal(r.NodeStatus)
	if err != nil {
		return "", fmt.Errorf("pipeboard: marshal node status: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO runs (id, workflow_id, status, node_status, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.WorkflowID, r.Status, nodeStatus, nullTime(r.StartedAt), nullTime(r.FinishedAt),
	)
	if err != nil {
		return "", fmt.Errorf("pipeboard: insert run: %w", err)
	}
	return r.ID, nil
}

// GetRun fetches a single run by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetRun(ctx context.Context, id string) (*pipeboard.Run, error) {
	var (
		r                 pipeboard.Run
		nodeStatus        []byte
		started, finished *time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, workflow_id, status, node_status, started_at, finished_at FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.WorkflowID, &r.Status, &nodeStatus, &started, &finished)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeboard: get run: %w", err)
	}
	if err := json.Unmarshal(nodeStatus, &r.NodeStatus); err != nil {
		return nil, fmt.Errorf("pipeboard: unmarshal node status: %w", err)
	}
	if started != nil {
		r.StartedAt = *started
	}
	if finished != nil {
		r.FinishedAt = *finished
	}
	return &r, nil
}

// UpdateRun updates an existing run's status and timestamps.
// Returns ErrRunNotFound if it doesn't exist.
func (s *PGStore) UpdateRun(ctx context.Context, r *pipeboard.Run) error {
	nodeStatus, err := json.Marshal(r.NodeStatus)
	if err != nil {
		return fmt.Errorf("pipeboard: marshal node status: %w", err)
	}
	ct, err := s.db.Exec(ctx,
		`UPDATE runs SET status = $1, node_status = $2, started_at = $3, finished_at = $4 WHERE id = $5`,
		r.Status, nodeStatus, nullTime(r.StartedAt), nullTime(r.FinishedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("pipeboard: update run: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeboard.ErrRunNotFound
	}
	return nil
}

// ListRuns returns runs, newest last, optionally filtered by workflow.
// Returns an empty slice (not nil) if none match.
func (s *PGStore) ListRuns(ctx context.Context, workflowID string) ([]pipeboard.Run, error) {
	query := `SELECT id, workflow_id, status, node_status, started_at, finished_at FROM runs`
	args := []any{}
	if workflowID != "" {
		query += ` WHERE workflow_id = $1`
		args = append(args, workflowID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: list runs: %w", err)
	}
	defer rows.Close()

	runs := []pipeboard.Run{}
	for rows.Next() {
		var (
			r                 pipeboard.Run
			nodeStatus        []byte
			started, finished *time.Time
		)
		if err := rows.Scan(&r.ID, &r.WorkflowID, &r.Status, &nodeStatus, &started, &finished); err != nil {
			return nil, fmt.Errorf("pipeboard: scan run: %w", err)
		}
		if err := json.Unmarshal(nodeStatus, &r.NodeStatus); err != nil {
			return nil, fmt.Errorf("pipeboard: unmarshal node status: %w", err)
		}
		if started != nil {
			r.StartedAt = *started
		}
		if finished != nil {
			r.FinishedAt = *finished
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows runs: %w", err)
	}

	return runs, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
