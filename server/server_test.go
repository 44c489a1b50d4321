package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeboard/pipeboard"
	"github.com/pipeboard/pipeboard/memory"
)

func newTestServer(t *testing.T, opts ...Option) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Seed(context.Background()))
	app := New(store, slog.New(slog.DiscardHandler), opts...)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func TestHealth(t *testing.T) {
	app, _ := newTestServer(t)
	resp, body := doJSON(t, app, http.MethodGet, "/api/health", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestAgentRoutes(t *testing.T) {
	t.Run("list returns agents and count", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodGet, "/api/agents", nil)
		require.Equal(t, 200, resp.StatusCode)

		var out struct {
			Agents []pipeboard.Agent `json:"agents"`
			Count  int               `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, len(out.Agents), out.Count)
		assert.NotZero(t, out.Count)
	})

	t.Run("get missing agent is 404", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodGet, "/api/agents/ghost", nil)
		assert.Equal(t, 404, resp.StatusCode)
		assert.Contains(t, string(body), "agent not found")
	})

	t.Run("create then fetch", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodPost, "/api/agents", pipeboard.Agent{
			Name: "new-agent", Entrypoint: "run:main",
		})
		require.Equal(t, 201, resp.StatusCode)

		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(body, &created))
		require.NotEmpty(t, created.ID)

		resp, body = doJSON(t, app, http.MethodGet, "/api/agents/"+created.ID, nil)
		require.Equal(t, 200, resp.StatusCode)
		var a pipeboard.Agent
		require.NoError(t, json.Unmarshal(body, &a))
		assert.Equal(t, "new-agent", a.Name)
	})

	t.Run("update missing agent is 404", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, _ := doJSON(t, app, http.MethodPut, "/api/agents/ghost", pipeboard.Agent{Name: "x"})
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("invalid body is 400", func(t *testing.T) {
		app, _ := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/agents", bytes.NewReader([]byte("{broken")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestWorkflowRoutes(t *testing.T) {
	t.Run("create rejects dangling edges", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodPost, "/api/workflows", pipeboard.Workflow{
			Name:  "bad",
			Nodes: []pipeboard.Node{{ID: "a", Type: pipeboard.NodeInput}},
			Edges: []pipeboard.Edge{{ID: "e", Source: "a", Target: "ghost"}},
		})
		assert.Equal(t, 422, resp.StatusCode)
		assert.Contains(t, string(body), "unknown node")
	})

	t.Run("seeded workflow round trips through the API", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodGet, "/api/workflows/wf-intake", nil)
		require.Equal(t, 200, resp.StatusCode)

		var w pipeboard.Workflow
		require.NoError(t, json.Unmarshal(body, &w))
		assert.NotEmpty(t, w.Nodes)
		assert.NotEmpty(t, w.Edges)

		w.Name = "renamed"
		resp, _ = doJSON(t, app, http.MethodPut, "/api/workflows/wf-intake", w)
		require.Equal(t, 204, resp.StatusCode)

		resp, body = doJSON(t, app, http.MethodGet, "/api/workflows/wf-intake", nil)
		require.Equal(t, 200, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &w))
		assert.Equal(t, "renamed", w.Name)
	})

	t.Run("layout assigns level-based positions", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodPost, "/api/workflows/wf-intake/layout",
			map[string]float64{"horizontal_gap": 100, "vertical_gap": 50})
		require.Equal(t, 200, resp.StatusCode)

		var w pipeboard.Workflow
		require.NoError(t, json.Unmarshal(body, &w))

		pos := map[string]pipeboard.Position{}
		for _, n := range w.Nodes {
			pos[n.ID] = n.Position
		}
		// in -> extract -> route -> {classify, out}
		assert.Equal(t, 0.0, pos["in"].X)
		assert.Equal(t, 100.0, pos["extract"].X)
		assert.Equal(t, 200.0, pos["route"].X)
		assert.Equal(t, 300.0, pos["classify"].X)
	})

	t.Run("layout of a missing workflow is 404", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, _ := doJSON(t, app, http.MethodPost, "/api/workflows/ghost/layout", nil)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestRunRoutes(t *testing.T) {
	t.Run("run completes and records node statuses", func(t *testing.T) {
		app, store := newTestServer(t, WithStepDelay(time.Millisecond))
		resp, body := doJSON(t, app, http.MethodPost, "/api/workflows/wf-intake/run", nil)
		require.Equal(t, 202, resp.StatusCode)

		var started struct {
			RunID string `json:"run_id"`
		}
		require.NoError(t, json.Unmarshal(body, &started))
		require.NotEmpty(t, started.RunID)

		require.Eventually(t, func() bool {
			r, err := store.GetRun(context.Background(), started.RunID)
			return err == nil && r != nil && r.Status == pipeboard.RunSucceeded
		}, 5*time.Second, 10*time.Millisecond)

		r, err := store.GetRun(context.Background(), started.RunID)
		require.NoError(t, err)
		assert.Len(t, r.NodeStatus, 5)
		for id, st := range r.NodeStatus {
			assert.Equal(t, pipeboard.RunSucceeded, st, "node %s", id)
		}
		assert.False(t, r.FinishedAt.IsZero())
	})

	t.Run("cancel stops an in-flight run", func(t *testing.T) {
		app, store := newTestServer(t, WithStepDelay(time.Hour))
		resp, body := doJSON(t, app, http.MethodPost, "/api/workflows/wf-intake/run", nil)
		require.Equal(t, 202, resp.StatusCode)

		var started struct {
			RunID string `json:"run_id"`
		}
		require.NoError(t, json.Unmarshal(body, &started))

		// The first node must be in flight before we cancel.
		require.Eventually(t, func() bool {
			r, err := store.GetRun(context.Background(), started.RunID)
			return err == nil && r != nil && len(r.NodeStatus) > 0
		}, 5*time.Second, 10*time.Millisecond)

		resp, _ = doJSON(t, app, http.MethodPost, "/api/runs/"+started.RunID+"/cancel", nil)
		require.Equal(t, 202, resp.StatusCode)

		require.Eventually(t, func() bool {
			r, err := store.GetRun(context.Background(), started.RunID)
			return err == nil && r != nil && r.Status == pipeboard.RunCanceled
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("cancel of a finished run is 409", func(t *testing.T) {
		app, store := newTestServer(t)
		// run-01 is seeded as already succeeded.
		r, err := store.GetRun(context.Background(), "run-01")
		require.NoError(t, err)
		require.NotNil(t, r)

		resp, _ := doJSON(t, app, http.MethodPost, "/api/runs/run-01/cancel", nil)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("cancel of an unknown run is 404", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, _ := doJSON(t, app, http.MethodPost, "/api/runs/ghost/cancel", nil)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("run of a missing workflow is 404", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, _ := doJSON(t, app, http.MethodPost, "/api/workflows/ghost/run", nil)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("list filters by workflow id", func(t *testing.T) {
		app, _ := newTestServer(t)
		resp, body := doJSON(t, app, http.MethodGet, "/api/runs?workflow_id=wf-intake", nil)
		require.Equal(t, 200, resp.StatusCode)

		var out struct {
			Runs  []pipeboard.Run `json:"runs"`
			Count int             `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.NotZero(t, out.Count)
		for _, r := range out.Runs {
			assert.Equal(t, "wf-intake", r.WorkflowID)
		}
	})
}

func TestCatalogRoutes(t *testing.T) {
	app, _ := newTestServer(t)

	t.Run("pipelines", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/pipelines", nil)
		require.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, string(body), "pipelines")
	})

	t.Run("triggers", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/triggers", nil)
		require.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, string(body), "triggers")
	})

	t.Run("training jobs", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/training", nil)
		require.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, string(body), "jobs")
	})
}
