// Package client is a typed Go client for the pipeboard REST API. Every call
// takes a context; callers navigating away cancel it and no stale result is
// ever delivered.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pipeboard/pipeboard"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipeboard api: status %d: %s", e.Status, e.Message)
}

// Client calls the dashboard API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API at baseURL (e.g. "http://localhost:3000").
// A nil httpClient falls back to http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// AgentList is the response of GET /api/agents.
type AgentList struct {
	Agents []pipeboard.Agent `json:"agents"`
	Count  int               `json:"count"`
}

// Agents lists all registered agents.
func (c *Client) Agents(ctx context.Context) (*AgentList, error) {
	var out AgentList
	if err := c.do(ctx, http.MethodGet, "/api/agents", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PipelineList is the response of GET /api/pipelines.
type PipelineList struct {
	Pipelines []pipeboard.Pipeline `json:"pipelines"`
	Count     int                  `json:"count"`
}

// Pipelines lists all pipelines.
func (c *Client) Pipelines(ctx context.Context) (*PipelineList, error) {
	var out PipelineList
	if err := c.do(ctx, http.MethodGet, "/api/pipelines", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerList is the response of GET /api/triggers.
type TriggerList struct {
	Triggers []pipeboard.Trigger `json:"triggers"`
	Count    int                 `json:"count"`
}

// Triggers lists all triggers.
func (c *Client) Triggers(ctx context.Context) (*TriggerList, error) {
	var out TriggerList
	if err := c.do(ctx, http.MethodGet, "/api/triggers", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunList is the response of GET /api/runs.
type RunList struct {
	Runs  []pipeboard.Run `json:"runs"`
	Count int             `json:"count"`
}

// Runs lists runs, optionally filtered by workflow.
func (c *Client) Runs(ctx context.Context, workflowID string) (*RunList, error) {
	path := "/api/runs"
	if workflowID != "" {
		path += "?workflow_id=" + workflowID
	}
	var out RunList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Run fetches one run, with its per-node statuses.
func (c *Client) Run(ctx context.Context, id string) (*pipeboard.Run, error) {
	var out pipeboard.Run
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Workflow fetches a workflow with its full graph.
func (c *Client) Workflow(ctx context.Context, id string) (*pipeboard.Workflow, error) {
	var out pipeboard.Workflow
	if err := c.do(ctx, http.MethodGet, "/api/workflows/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveWorkflow replaces a workflow's graph and metadata.
func (c *Client) SaveWorkflow(ctx context.Context, w *pipeboard.Workflow) error {
	return c.do(ctx, http.MethodPut, "/api/workflows/"+w.ID, w, nil)
}

// AutoLayout asks the server to reposition a workflow's nodes and returns
// the updated workflow.
func (c *Client) AutoLayout(ctx context.Context, id string) (*pipeboard.Workflow, error) {
	var out pipeboard.Workflow
	if err := c.do(ctx, http.MethodPost, "/api/workflows/"+id+"/layout", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartRun starts a simulated run and returns its id.
func (c *Client) StartRun(ctx context.Context, workflowID string) (string, error) {
	var out struct {
		RunID string `json:"run_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/workflows/"+workflowID+"/run", nil, &out); err != nil {
		return "", err
	}
	return out.RunID, nil
}

// CancelRun cancels an in-flight run.
func (c *Client) CancelRun(ctx context.Context, runID string) error {
	return c.do(ctx, http.MethodPost, "/api/runs/"+runID+"/cancel", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("pipeboard api: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("pipeboard api: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pipeboard api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
			if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
				msg = payload.Error
			}
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pipeboard api: decode response: %w", err)
	}
	return nil
}
