package server

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/pipeboard/pipeboard"
	"github.com/pipeboard/pipeboard/runner"
)

// runManager tracks in-flight simulated runs so they can be canceled.
type runManager struct {
	mu     sync.Mutex
	cancel map[string]context.CancelFunc
}

func newRunManager() *runManager {
	return &runManager{cancel: map[string]context.CancelFunc{}}
}

func (m *runManager) add(runID string, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel[runID] = cancel
}

func (m *runManager) remove(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancel, runID)
}

// stop cancels a run if it is still in flight.
func (m *runManager) stop(runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancel, ok := m.cancel[runID]
	if ok {
		cancel()
		delete(m.cancel, runID)
	}
	return ok
}

func (s *Server) mountRuns(api fiber.Router) {
	api.Get("/runs", func(c fiber.Ctx) error {
		runs, err := s.store.ListRuns(c.Context(), c.Query("workflow_id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"runs": runs, "count": len(runs)})
	})

	api.Get("/runs/:id", func(c fiber.Ctx) error {
		r, err := s.store.GetRun(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if r == nil {
			return c.Status(404).JSON(fiber.Map{"error": "run not found"})
		}
		return c.JSON(r)
	})

	// Start a simulated run. The simulation continues after the request
	// returns; poll GET /runs/:id for progress.
	api.Post("/workflows/:id/run", func(c fiber.Ctx) error {
		w, err := s.store.GetWorkflow(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if w == nil {
			return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
		}

		run := &pipeboard.Run{
			WorkflowID: w.ID,
			Status:     pipeboard.RunRunning,
			NodeStatus: map[string]pipeboard.RunStatus{},
			StartedAt:  time.Now().UTC(),
		}
		runID, err := s.store.CreateRun(c.Context(), run)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		// Detach from the request context: the run outlives the request
		// and is stopped only through the cancel endpoint.
		ctx, cancel := context.WithCancel(context.Background())
		s.runs.add(runID, cancel)
		go s.simulate(ctx, cancel, run, w)

		return c.Status(202).JSON(fiber.Map{"run_id": runID})
	})

	api.Post("/runs/:id/cancel", func(c fiber.Ctx) error {
		id := c.Params("id")
		if !s.runs.stop(id) {
			r, err := s.store.GetRun(c.Context(), id)
			if err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
			if r == nil {
				return c.Status(404).JSON(fiber.Map{"error": "run not found"})
			}
			return c.Status(409).JSON(fiber.Map{"error": "run already finished"})
		}
		return c.SendStatus(202)
	})
}

// simulate drives one workflow run to completion, persisting every node
// status change so the dashboard can poll progress.
func (s *Server) simulate(ctx context.Context, cancel context.CancelFunc, run *pipeboard.Run, w *pipeboard.Workflow) {
	defer cancel()
	defer s.runs.remove(run.ID)

	_, err := runner.Simulate(ctx, w, runner.Options{
		StepDelay: s.stepDelay,
		OnEvent: func(ev runner.Event) {
			run.NodeStatus[ev.NodeID] = ev.Status
			if err := s.store.UpdateRun(context.Background(), run); err != nil {
				s.log.Error("persist run progress", "run_id", run.ID, "error", err)
			}
		},
	})

	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = pipeboard.RunCanceled
	} else {
		run.Status = pipeboard.RunSucceeded
	}
	if err := s.store.UpdateRun(context.Background(), run); err != nil {
		s.log.Error("persist run result", "run_id", run.ID, "error", err)
	}
}
