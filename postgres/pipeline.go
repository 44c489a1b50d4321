package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pipeboard/pipeboard"
)

// CreatePipeline inserts a pipeline. An empty ID gets an auto-generated UUID.
func (s *PGStore) CreatePipeline(ctx context.Context, p *pipeboard.Pipeline) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = "draft"
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO pipelines (id, name, description, workflow_id, status, schedule)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.WorkflowID, p.Status, p.Schedule,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("pipeboard: insert pipeline: %w", err)
	}
	return p.ID, nil
}

// GetPipeline fetches a single pipeline by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetPipeline(ctx context.Context, id string) (*pipeboard.Pipeline, error) {
	var p pipeboard.Pipeline
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, workflow_id, status, schedule, created_at, updated_at
		 FROM pipelines WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.WorkflowID, &p.Status, &p.Schedule, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeboard: get pipeline: %w", err)
	}
	return &p, nil
}

// UpdatePipeline updates an existing pipeline.
// Returns ErrPipelineNotFound if it doesn't exist.
func (s *PGStore) UpdatePipeline(ctx context.Context, p *pipeboard.Pipeline) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE pipelines SET name = $1, description = $2, workflow_id = $3, status = $4,
		 schedule = $5, updated_at = NOW() WHERE id = $6`,
		p.Name, p.Description, p.WorkflowID, p.Status, p.Schedule, p.ID,
	)
	if err != nil {
		return fmt.Errorf("pipeboard: update pipeline: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeboard.ErrPipelineNotFound
	}
	return nil
}

// DeletePipeline deletes a pipeline by its ID. No error if it doesn't exist.
func (s *PGStore) DeletePipeline(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM pipelines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pipeboard: delete pipeline: %w", err)
	}
	return nil
}

// ListPipelines returns all pipelines ordered by created_at.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListPipelines(ctx context.Context) ([]pipeboard.Pipeline, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, workflow_id, status, schedule, created_at, updated_at
		 FROM pipelines ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := []pipeboard.Pipeline{}
	for rows.Next() {
		var p pipeboard.Pipeline
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.WorkflowID, &p.Status,
			&p.Schedule, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pipeboard: scan pipeline: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows pipelines: %w", err)
	}

	return pipelines, nil
}
