// Package runner simulates a workflow run for the dashboard: nodes are
// walked one at a time in dependency order, each held in the running state
// for a fixed delay before being marked succeeded. No agent is actually
// invoked.
package runner

import (
	"context"
	"sort"
	"time"

	"github.com/pipeboard/pipeboard"
)

// Event reports one node status change during a simulated run.
type Event struct {
	NodeID string              `json:"node_id"`
	Status pipeboard.RunStatus `json:"status"`
}

// Options configure a simulated run.
type Options struct {
	// StepDelay is how long each node stays running. Defaults to 600ms.
	StepDelay time.Duration
	// OnEvent, when set, receives every status change as it happens.
	OnEvent func(Event)
}

// Simulate runs the workflow's nodes sequentially and returns the final
// status of every node. Cancelling the context stops the walk: the node in
// flight is marked canceled, every node not yet reached is marked skipped,
// and ctx.Err() is returned.
func Simulate(ctx context.Context, w *pipeboard.Workflow, opts Options) (map[string]pipeboard.RunStatus, error) {
	if opts.StepDelay <= 0 {
		opts.StepDelay = 600 * time.Millisecond
	}
	emit := func(ev Event) {
		if opts.OnEvent != nil {
			opts.OnEvent(ev)
		}
	}

	order := runOrder(w.Nodes, w.Edges)
	status := make(map[string]pipeboard.RunStatus, len(order))
	for _, id := range order {
		status[id] = pipeboard.RunQueued
		emit(Event{NodeID: id, Status: pipeboard.RunQueued})
	}

	for i, id := range order {
		status[id] = pipeboard.RunRunning
		emit(Event{NodeID: id, Status: pipeboard.RunRunning})

		timer := time.NewTimer(opts.StepDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			status[id] = pipeboard.RunCanceled
			emit(Event{NodeID: id, Status: pipeboard.RunCanceled})
			for _, rest := range order[i+1:] {
				status[rest] = pipeboard.RunSkipped
				emit(Event{NodeID: rest, Status: pipeboard.RunSkipped})
			}
			return status, ctx.Err()
		case <-timer.C:
		}

		status[id] = pipeboard.RunSucceeded
		emit(Event{NodeID: id, Status: pipeboard.RunSucceeded})
	}
	return status, nil
}

// runOrder sorts node ids by BFS depth from the zero-in-degree roots,
// keeping the workflow's node order within a depth.
func runOrder(nodes []pipeboard.Node, edges []pipeboard.Edge) []string {
	inDegree := make(map[string]int, len(nodes))
	adj := make(map[string][]string)
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		inDegree[n.ID] = 0
		index[n.ID] = i
	}
	for _, e := range edges {
		if _, ok := inDegree[e.Target]; ok {
			inDegree[e.Target]++
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	if len(queue) == 0 && len(nodes) > 0 {
		queue = append(queue, nodes[0].ID)
	}

	depth := make(map[string]int, len(nodes))
	visited := make(map[string]bool, len(nodes))
	for _, id := range queue {
		visited[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if visited[next] {
				continue
			}
			if _, ok := index[next]; !ok {
				continue
			}
			visited[next] = true
			depth[next] = depth[id] + 1
			queue = append(queue, next)
		}
	}

	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		order = append(order, n.ID)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depth[order[a]] < depth[order[b]]
	})
	return order
}
