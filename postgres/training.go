package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pipeboard/pipeboard"
)

// ListTrainingJobs returns all training jobs ordered by updated_at.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListTrainingJobs(ctx context.Context) ([]pipeboard.TrainingJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, model, status, progress, started_at, updated_at
		 FROM training_jobs ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("pipeboard: list training jobs: %w", err)
	}
	defer rows.Close()

	jobs := []pipeboard.TrainingJob{}
	for rows.Next() {
		var (
			j       pipeboard.TrainingJob
			started *time.Time
		)
		if err := rows.Scan(&j.ID, &j.Name, &j.Model, &j.Status, &j.Progress, &started, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pipeboard: scan training job: %w", err)
		}
		if started != nil {
			j.StartedAt = *started
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeboard: rows training jobs: %w", err)
	}

	return jobs, nil
}
