package pipeboard

import (
	"context"
	"errors"
)

var (
	ErrWorkflowNotFound = errors.New("pipeboard: workflow not found")
	ErrNodeNotFound     = errors.New("pipeboard: node not found")
	ErrEdgeNotFound     = errors.New("pipeboard: edge not found")
	ErrAgentNotFound    = errors.New("pipeboard: agent not found")
	ErrPipelineNotFound = errors.New("pipeboard: pipeline not found")
	ErrTriggerNotFound  = errors.New("pipeboard: trigger not found")
	ErrRunNotFound      = errors.New("pipeboard: run not found")

	// ErrUnknownEndpoint marks an edge whose source or target does not
	// reference a node in the workflow.
	ErrUnknownEndpoint = errors.New("pipeboard: edge endpoint references unknown node")
)

// Store is the contract for persisting the dashboard's resources.
//
// Get methods return nil, nil when the resource does not exist; List methods
// return an empty (non-nil) slice when nothing matches.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Workflows (graph is saved and loaded wholesale)
	CreateWorkflow(ctx context.Context, w *Workflow) (*Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	SaveWorkflow(ctx context.Context, w *Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context) ([]Workflow, error)

	// Agents
	CreateAgent(ctx context.Context, a *Agent) (string, error)
	GetAgent(ctx context.Context, id string) (*Agent, error)
	UpdateAgent(ctx context.Context, a *Agent) error
	DeleteAgent(ctx context.Context, id string) error
	ListAgents(ctx context.Context) ([]Agent, error)

	// Pipelines
	CreatePipeline(ctx context.Context, p *Pipeline) (string, error)
	GetPipeline(ctx context.Context, id string) (*Pipeline, error)
	UpdatePipeline(ctx context.Context, p *Pipeline) error
	DeletePipeline(ctx context.Context, id string) error
	ListPipelines(ctx context.Context) ([]Pipeline, error)

	// Triggers
	CreateTrigger(ctx context.Context, t *Trigger) (string, error)
	GetTrigger(ctx context.Context, id string) (*Trigger, error)
	UpdateTrigger(ctx context.Context, t *Trigger) error
	DeleteTrigger(ctx context.Context, id string) error
	ListTriggers(ctx context.Context) ([]Trigger, error)

	// Runs
	CreateRun(ctx context.Context, r *Run) (string, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRun(ctx context.Context, r *Run) error
	ListRuns(ctx context.Context, workflowID string) ([]Run, error)

	// Training jobs
	ListTrainingJobs(ctx context.Context) ([]TrainingJob, error)
}

// ValidateEdges checks that every edge endpoint references a node present in
// the workflow. Dangling references are rejected rather than silently
// rendered broken.
func ValidateEdges(nodes []Node, edges []Edge) error {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := ids[e.Source]; !ok {
			return ErrUnknownEndpoint
		}
		if _, ok := ids[e.Target]; !ok {
			return ErrUnknownEndpoint
		}
	}
	return nil
}
