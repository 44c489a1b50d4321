package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pipeboard/pipeboard"
)

// CreateAgent inserts an agent. An empty ID gets an auto-generated UUID.
// Returns the agent ID (generated or provided).
func (s *PGStore) CreateAgent(ctx context.Context, a *pipeboard.Agent) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	params, err := json.Marshal(a.Parameters)
	if err != nil {
		return "", fmt.Errorf("pipeboard: marshal parameters: %w", err)
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO agents (id, project_id, name, description, entrypoint, tags, parameters)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		a.ID, a.ProjectID, a.Name, a.Description, a.Entrypoint, a.Tags, params,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("pipeboard: insert agent: %w", err)
	}
	return a.ID, nil
}

// GetAgent fetches a single agent by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetAgent(ctx context.Context, id string) (*pipeboard.Agent, error) {
	var (
		a      pipeboard.Agent
		params []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, project_id, name, description, entrypoint, tags, parameters, created_at, updated_at
		 FROM agents WHERE id = $1`, id,
	).Scan(&a.ID, &a.ProjectID, &a.Name, &a.Description, &a.Entrypoint, &a.Tags, &params, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeboard: get agent: %w", err)
	}
	if err := json.Unmarshal(params, &a.Parameters); err != nil {
		return nil, fmt.Errorf("pipeboard: unmarshal parameters: %w", err)
	}
	return &a, nil
}

// UpdateAgent updates an existing agent.
// Returns ErrAgentNotFound if the agent doesn't exist.
func (s *PGStore) UpdateAgent(ctx context.Context, a *pipeboard.Agent) error {
	params, err := json.Marshal(a.Parameters)
	if err != nil {
		return fmt.Errorf("pipeboard: marshal parameters: %w", err)
	}
	ct, err := s.db.Exec(ctx,
		`UPDATE agents SET project_id = $1, name = $2, description = $3, entrypoint = $4,
		 tags = $5, parameters = $6, updated_at = NOW() WHERE id = $7`,
		a.ProjectID, a.Name, a.Description, a.Entrypoint, a.Tags, params, a.ID,
	)
	if err != nil {
		return fmt.Errorf("pipeboard: update agent: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeboard.ErrAgentNotFound
	}
	return nil
}

// DeleteAgent deletes an agent by its ID. No error if it doesn't exist.
func (s *PGStore) DeleteAgent(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pipeboard: delete agent: %w", err)
	}
	return nil
}

// ListAgents returns all agents ordered by created_at.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListAgents(ctx context.Context) ([]pipeboard.Agent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, project_id, name, description, entrypoint, tags, parameters, created_at, updated_at
		 FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: list agents: %w", err)
	}
	defer rows.Close()

	agents := []pipeboard.Agent{}
	for rows.Next() {
		var (
			a      pipeboard.Agent
			params []byte
		)
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Description, &a.Entrypoint,
			&a.Tags, &params, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pipeboard: scan agent: %w", err)
		}
		if err := json.Unmarshal(params, &a.Parameters); err != nil {
			return nil, fmt.Errorf("pipeboard: unmarshal parameters: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows agents: %w", err)
	}

	return agents, nil
}
