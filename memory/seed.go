package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/pipeboard/pipeboard"
)

// Seed loads the demo dataset the dashboard ships with, so the product runs
// standalone without a database.
func (s *Store) Seed(ctx context.Context) error {
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	s.mu.Lock()
	s.now = func() time.Time { base = base.Add(time.Minute); return base }
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.now = time.Now
		s.mu.Unlock()
	}()

	agents := []pipeboard.Agent{
		{
			ID:          "agent-extract",
			ProjectID:   "demo",
			Name:        "Document Extractor",
			Description: "Pulls structured fields out of uploaded documents.",
			Entrypoint:  "agents/extract:main",
			Tags:        []string{"ingest", "documents"},
			Parameters: map[string]pipeboard.Parameter{
				"source": {Name: "source", Type: "string", Required: true, Description: "Bucket or folder to read."},
				"locale": {Name: "locale", Type: "string", Default: "en-US"},
			},
		},
		{
			ID:          "agent-classify",
			ProjectID:   "demo",
			Name:        "Topic Classifier",
			Description: "Labels each record with a topic.",
			Entrypoint:  "agents/classify:main",
			Tags:        []string{"nlp"},
			Parameters: map[string]pipeboard.Parameter{
				"model":     {Name: "model", Type: "string", Required: true},
				"threshold": {Name: "threshold", Type: "number", Default: 0.8},
			},
		},
		{
			ID:         "agent-notify",
			ProjectID:  "demo",
			Name:       "Notifier",
			Entrypoint: "agents/notify:main",
			Tags:       []string{"alerts"},
			Parameters: map[string]pipeboard.Parameter{
				"channel": {Name: "channel", Type: "string", Required: true},
			},
		},
	}
	for i := range agents {
		if _, err := s.CreateAgent(ctx, &agents[i]); err != nil {
			return fmt.Errorf("memory: seed agent: %w", err)
		}
	}

	wf := &pipeboard.Workflow{
		ID:          "wf-intake",
		Name:        "Document intake",
		Description: "Extract, classify, and route incoming documents.",
		Nodes: []pipeboard.Node{
			{ID: "in", Type: pipeboard.NodeInput, Data: pipeboard.NodeData{Label: "Upload", Config: &pipeboard.InputConfig{Source: "s3://inbox", Format: "pdf"}}},
			{ID: "extract", Type: pipeboard.NodeAgent, Data: pipeboard.NodeData{Label: "Extract", Config: &pipeboard.AgentConfig{AgentID: "agent-extract", Entrypoint: "agents/extract:main"}}},
			{ID: "route", Type: pipeboard.NodeCondition, Data: pipeboard.NodeData{Label: "Confident?", Config: &pipeboard.ConditionConfig{Expression: "score > 0.8"}}},
			{ID: "classify", Type: pipeboard.NodeAgent, Data: pipeboard.NodeData{Label: "Classify", Config: &pipeboard.AgentConfig{AgentID: "agent-classify"}}},
			{ID: "out", Type: pipeboard.NodeOutput, Data: pipeboard.NodeData{Label: "Archive", Config: &pipeboard.OutputConfig{Destination: "s3://archive"}}},
		},
		Edges: []pipeboard.Edge{
			{ID: "e1", Source: "in", Target: "extract"},
			{ID: "e2", Source: "extract", Target: "route"},
			{ID: "e3", Source: "route", Target: "classify", SourceHandle: "true"},
			{ID: "e4", Source: "route", Target: "out", SourceHandle: "false"},
			{ID: "e5", Source: "classify", Target: "out"},
		},
	}
	if _, err := s.CreateWorkflow(ctx, wf); err != nil {
		return fmt.Errorf("memory: seed workflow: %w", err)
	}

	pipelines := []pipeboard.Pipeline{
		{ID: "pl-intake", Name: "Document intake", WorkflowID: "wf-intake", Status: "active", Schedule: "*/15 * * * *"},
		{ID: "pl-digest", Name: "Daily digest", Status: "paused", Schedule: "0 7 * * *"},
		{ID: "pl-backfill", Name: "Archive backfill", Status: "draft"},
	}
	for i := range pipelines {
		if _, err := s.CreatePipeline(ctx, &pipelines[i]); err != nil {
			return fmt.Errorf("memory: seed pipeline: %w", err)
		}
	}

	triggers := []pipeboard.Trigger{
		{ID: "tr-cron", Name: "Intake schedule", Kind: pipeboard.TriggerSchedule, PipelineID: "pl-intake", Config: "*/15 * * * *", Enabled: true},
		{ID: "tr-hook", Name: "Upload webhook", Kind: pipeboard.TriggerWebhook, PipelineID: "pl-intake", Config: "/hooks/upload", Enabled: true},
		{ID: "tr-event", Name: "Reprocess request", Kind: pipeboard.TriggerEvent, PipelineID: "pl-backfill", Enabled: false},
	}
	for i := range triggers {
		if _, err := s.CreateTrigger(ctx, &triggers[i]); err != nil {
			return fmt.Errorf("memory: seed trigger: %w", err)
		}
	}

	runs := []pipeboard.Run{
		{
			ID: "run-01", WorkflowID: "wf-intake", Status: pipeboard.RunSucceeded,
			NodeStatus: map[string]pipeboard.RunStatus{
				"in": pipeboard.RunSucceeded, "extract": pipeboard.RunSucceeded,
				"route": pipeboard.RunSucceeded, "classify": pipeboard.RunSucceeded,
				"out": pipeboard.RunSucceeded,
			},
			StartedAt:  base.Add(-90 * time.Minute),
			FinishedAt: base.Add(-87 * time.Minute),
		},
		{
			ID: "run-02", WorkflowID: "wf-intake", Status: pipeboard.RunFailed,
			NodeStatus: map[string]pipeboard.RunStatus{
				"in": pipeboard.RunSucceeded, "extract": pipeboard.RunFailed,
			},
			StartedAt:  base.Add(-30 * time.Minute),
			FinishedAt: base.Add(-29 * time.Minute),
		},
	}
	for i := range runs {
		if _, err := s.CreateRun(ctx, &runs[i]); err != nil {
			return fmt.Errorf("memory: seed run: %w", err)
		}
	}

	jobs := []pipeboard.TrainingJob{
		{ID: "tj-01", Name: "Classifier refresh", Model: "topic-v3", Status: "running", Progress: 0.62, StartedAt: base.Add(-4 * time.Hour)},
		{ID: "tj-02", Name: "Extractor finetune", Model: "extract-v2", Status: "queued"},
	}
	s.mu.Lock()
	for i := range jobs {
		j := jobs[i]
		s.training[j.ID] = &j
		s.track(j.ID)
	}
	s.mu.Unlock()

	return nil
}
