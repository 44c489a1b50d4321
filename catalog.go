package pipeboard

import "time"

// Agent is a registered unit of work a workflow's agent nodes can invoke.
type Agent struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"project_id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Entrypoint  string               `json:"entrypoint"`
	Tags        []string             `json:"tags"`
	Parameters  map[string]Parameter `json:"parameters"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Parameter describes one input an agent accepts.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Pipeline is a deployable pipeline shown on the dashboard. Its graph lives
// in the workflow it references.
type Pipeline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	WorkflowID  string    `json:"workflow_id,omitempty"`
	Status      string    `json:"status"`
	Schedule    string    `json:"schedule,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TriggerKind is how a trigger fires.
type TriggerKind string

const (
	TriggerSchedule TriggerKind = "schedule"
	TriggerWebhook  TriggerKind = "webhook"
	TriggerEvent    TriggerKind = "event"
)

// Trigger starts a pipeline in response to a schedule, webhook, or event.
type Trigger struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       TriggerKind `json:"kind"`
	PipelineID string      `json:"pipeline_id"`
	Config     string      `json:"config,omitempty"`
	Enabled    bool        `json:"enabled"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// RunStatus is the lifecycle state of a run or of a single node within it.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
	RunSkipped   RunStatus = "skipped"
)

// Run records one execution of a workflow, simulated or real.
type Run struct {
	ID         string               `json:"id"`
	WorkflowID string               `json:"workflow_id"`
	Status     RunStatus            `json:"status"`
	NodeStatus map[string]RunStatus `json:"node_status,omitempty"`
	StartedAt  time.Time            `json:"started_at,omitzero"`
	FinishedAt time.Time            `json:"finished_at,omitzero"`
}

// TrainingJob is a model-training job listed on the training screen.
type TrainingJob struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	StartedAt time.Time `json:"started_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}
