package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pipeboard/pipeboard"
)

// CreateTrigger inserts a trigger. An empty ID gets an auto-generated UUID.
func (s *PGStore) CreateTrigger(ctx context.Context, t *pipeboard.Trigger) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO triggers (id, name, kind, pipeline_id, config, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Kind, t.PipelineID, t.Config, t.Enabled,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("pipeboard: insert trigger: %w", err)
	}
	return t.ID, nil
}

// GetTrigger fetches a single trigger by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetTrigger(ctx context.Context, id string) (*pipeboard.Trigger, error) {
	var t pipeboard.Trigger
	err := s.db.QueryRow(ctx,
		`SELECT id, name, kind, pipeline_id, config, enabled, created_at, updated_at
		 FROM triggers WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Kind, &t.PipelineID, &t.Config, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeboard: get trigger: %w", err)
	}
	return &t, nil
}

// UpdateTrigger updates an existing trigger.
// Returns ErrTriggerNotFound if it doesn't exist.
func (s *PGStore) UpdateTrigger(ctx context.Context, t *pipeboard.Trigger) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE triggers SET name = $1, kind = $2, pipeline_id = $3, config = $4,
		 enabled = $5, updated_at = NOW() WHERE id = $6`,
		t.Name, t.Kind, t.PipelineID, t.Config, t.Enabled, t.ID,
	)
	if err != nil {
		return fmt.Errorf("pipeboard: update trigger: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeboard.ErrTriggerNotFound
	}
	return nil
}

// DeleteTrigger deletes a trigger by its ID. No error if it doesn't exist.
func (s *PGStore) DeleteTrigger(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM triggers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pipeboard: delete trigger: %w", err)
	}
	return nil
}

// ListTriggers returns all triggers ordered by created_at.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListTriggers(ctx context.Context) ([]pipeboard.Trigger, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, kind, pipeline_id, config, enabled, created_at, updated_at
		 FROM triggers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: list triggers: %w", err)
	}
	defer rows.Close()

	triggers := []pipeboard.Trigger{}
	for rows.Next() {
		var t pipeboard.Trigger
		if err := rows.Scan(&t.ID, &t.Name, &t.Kind, &t.PipelineID, &t.Config,
			&t.Enabled, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pipeboard: scan trigger: %w", err)
		}
		triggers = append(triggers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows triggers: %w", err)
	}

	return triggers, nil
}
