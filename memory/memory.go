// Package memory implements pipeboard.Store with in-process maps. It backs
// the server when no database is configured and gives tests a store without
// a postgres dependency.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pipeboard/pipeboard"
)

// Store is an in-memory pipeboard.Store. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]*pipeboard.Workflow
	agents    map[string]*pipeboard.Agent
	pipelines map[string]*pipeboard.Pipeline
	triggers  map[string]*pipeboard.Trigger
	runs      map[string]*pipeboard.Run
	training  map[string]*pipeboard.TrainingJob

	// order of insertion, so lists are stable like the SQL store's
	// ORDER BY created_at.
	seq map[string]int
	n   int

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		workflows: map[string]*pipeboard.Workflow{},
		agents:    map[string]*pipeboard.Agent{},
		pipelines: map[string]*pipeboard.Pipeline{},
		triggers:  map[string]*pipeboard.Trigger{},
		runs:      map[string]*pipeboard.Run{},
		training:  map[string]*pipeboard.TrainingJob{},
		seq:       map[string]int{},
		now:       time.Now,
	}
}

func (s *Store) track(id string) {
	s.seq[id] = s.n
	s.n++
}

// CreateSchema is a no-op; maps need no DDL.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards everything.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = map[string]*pipeboard.Workflow{}
	s.agents = map[string]*pipeboard.Agent{}
	s.pipelines = map[string]*pipeboard.Pipeline{}
	s.triggers = map[string]*pipeboard.Trigger{}
	s.runs = map[string]*pipeboard.Run{}
	s.training = map[string]*pipeboard.TrainingJob{}
	s.seq = map[string]int{}
	s.n = 0
	return nil
}

// ── Workflows ─────────────────────────────────────────────────────────

func (s *Store) CreateWorkflow(ctx context.Context, w *pipeboard.Workflow) (*pipeboard.Workflow, error) {
	if err := pipeboard.ValidateEdges(w.Nodes, w.Edges); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.CreatedAt = s.now()
	w.UpdatedAt = w.CreatedAt
	cp := cloneWorkflow(w)
	s.workflows[w.ID] = cp
	s.track(w.ID)
	return cloneWorkflow(cp), nil
}

func (s *Store) GetWorkflow(ctx context.Context, id string) (*pipeboard.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, nil
	}
	return cloneWorkflow(w), nil
}

func (s *Store) SaveWorkflow(ctx context.Context, w *pipeboard.Workflow) error {
	if err := pipeboard.ValidateEdges(w.Nodes, w.Edges); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.workflows[w.ID]
	if !ok {
		return pipeboard.ErrWorkflowNotFound
	}
	cp := cloneWorkflow(w)
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = s.now()
	s.workflows[w.ID] = cp
	return nil
}

func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, id)
	return nil
}

func (s *Store) ListWorkflows(ctx context.Context) ([]pipeboard.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []pipeboard.Workflow{}
	for _, w := range s.workflows {
		out = append(out, *cloneWorkflow(w))
	}
	s.sortByInsertion(len(out), func(i int) string { return out[i].ID }, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// ── Agents ────────────────────────────────────────────────────────────

func (s *Store) CreateAgent(ctx context.Context, a *pipeboard.Agent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.agents[a.ID] = &cp
	s.track(a.ID)
	return a.ID, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*pipeboard.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *Store) UpdateAgent(ctx context.Context, a *pipeboard.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.agents[a.ID]
	if !ok {
		return pipeboard.ErrAgentNotFound
	}
	cp := *a
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = s.now()
	s.agents[a.ID] = &cp
	return nil
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, id)
	return nil
}

func (s *Store) ListAgents(ctx context.Context) ([]pipeboard.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []pipeboard.Agent{}
	for _, a := range s.agents {
		out = append(out, *a)
	}
	s.sortByInsertion(len(out), func(i int) string { return out[i].ID }, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// ── Pipelines ─────────────────────────────────────────────────────────

func (s *Store) CreatePipeline(ctx context.Context, p *pipeboard.Pipeline) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.pipelines[p.ID] = &cp
	s.track(p.ID)
	return p.ID, nil
}

func (s *Store) GetPipeline(ctx context.Context, id string) (*pipeboard.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pipelines[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePipeline(ctx context.Context, p *pipeboard.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.pipelines[p.ID]
	if !ok {
		return pipeboard.ErrPipelineNotFound
	}
	cp := *p
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = s.now()
	s.pipelines[p.ID] = &cp
	return nil
}

func (s *Store) DeletePipeline(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pipelines, id)
	return nil
}

func (s *Store) ListPipelines(ctx context.Context) ([]pipeboard.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []pipeboard.Pipeline{}
	for _, p := range s.pipelines {
		out = append(out, *p)
	}
	s.sortByInsertion(len(out), func(i int) string { return out[i].ID }, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// ── Triggers ──────────────────────────────────────────────────────────

func (s *Store) CreateTrigger(ctx context.Context, t *pipeboard.Trigger) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.triggers[t.ID] = &cp
	s.track(t.ID)
	return t.ID, nil
}

func (s *Store) GetTrigger(ctx context.Context, id string) (*pipeboard.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.triggers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *Store) UpdateTrigger(ctx context.Context, t *pipeboard.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.triggers[t.ID]
	if !ok {
		return pipeboard.ErrTriggerNotFound
	}
	cp := *t
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = s.now()
	s.triggers[t.ID] = &cp
	return nil
}

func (s *Store) DeleteTrigger(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.triggers, id)
	return nil
}

func (s *Store) ListTriggers(ctx context.Context) ([]pipeboard.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []pipeboard.Trigger{}
	for _, t := range s.triggers {
		out = append(out, *t)
	}
	s.sortByInsertion(len(out), func(i int) string { return out[i].ID }, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// ── Runs ──────────────────────────────────────────────────────────────

func (s *Store) CreateRun(ctx context.Context, r *pipeboard.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	cp := cloneRun(r)
	s.runs[r.ID] = cp
	s.track(r.ID)
	return r.ID, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*pipeboard.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	return cloneRun(r), nil
}

func (s *Store) UpdateRun(ctx context.Context, r *pipeboard.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; !ok {
		return pipeboard.ErrRunNotFound
	}
	s.runs[r.ID] = cloneRun(r)
	return nil
}

func (s *Store) ListRuns(ctx context.Context, workflowID string) ([]pipeboard.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []pipeboard.Run{}
	for _, r := range s.runs {
		if workflowID != "" && r.WorkflowID != workflowID {
			continue
		}
		out = append(out, *cloneRun(r))
	}
	s.sortByInsertion(len(out), func(i int) string { return out[i].ID }, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// ── Training jobs ─────────────────────────────────────────────────────

func (s *Store) ListTrainingJobs(ctx context.Context) ([]pipeboard.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []pipeboard.TrainingJob{}
	for _, j := range s.training {
		out = append(out, *j)
	}
	s.sortByInsertion(len(out), func(i int) string { return out[i].ID }, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// sortByInsertion orders a collected slice by original insertion sequence,
// mirroring the SQL store's ORDER BY created_at. Lists are small; a simple
// insertion sort is enough.
func (s *Store) sortByInsertion(n int, id func(int) string, swap func(i, j int)) {
	for i := 1; i < n; i++ {
		for j := i; j > 0 && s.seq[id(j)] < s.seq[id(j-1)]; j-- {
			swap(j, j-1)
		}
	}
}

func cloneWorkflow(w *pipeboard.Workflow) *pipeboard.Workflow {
	cp := *w
	cp.Nodes = make([]pipeboard.Node, len(w.Nodes))
	for i, n := range w.Nodes {
		n.Data = n.Data.Clone()
		cp.Nodes[i] = n
	}
	cp.Edges = append([]pipeboard.Edge(nil), w.Edges...)
	return &cp
}

func cloneRun(r *pipeboard.Run) *pipeboard.Run {
	cp := *r
	if r.NodeStatus != nil {
		cp.NodeStatus = make(map[string]pipeboard.RunStatus, len(r.NodeStatus))
		for k, v := range r.NodeStatus {
			cp.NodeStatus[k] = v
		}
	}
	return &cp
}
