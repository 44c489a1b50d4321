package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeboard/pipeboard"
)

func testWorkflow() *pipeboard.Workflow {
	return &pipeboard.Workflow{
		ID: "wf",
		Nodes: []pipeboard.Node{
			{ID: "in", Type: pipeboard.NodeInput},
			{ID: "work", Type: pipeboard.NodeAgent},
			{ID: "out", Type: pipeboard.NodeOutput},
		},
		Edges: []pipeboard.Edge{
			{ID: "e1", Source: "in", Target: "work"},
			{ID: "e2", Source: "work", Target: "out"},
		},
	}
}

func TestSimulate(t *testing.T) {
	t.Run("marks every node succeeded in dependency order", func(t *testing.T) {
		var running []string
		status, err := Simulate(context.Background(), testWorkflow(), Options{
			StepDelay: time.Millisecond,
			OnEvent: func(ev Event) {
				if ev.Status == pipeboard.RunRunning {
					running = append(running, ev.NodeID)
				}
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"in", "work", "out"}, running)
		for id, st := range status {
			assert.Equal(t, pipeboard.RunSucceeded, st, "node %s", id)
		}
	})

	t.Run("one node at a time", func(t *testing.T) {
		active := 0
		maxActive := 0
		_, err := Simulate(context.Background(), testWorkflow(), Options{
			StepDelay: time.Millisecond,
			OnEvent: func(ev Event) {
				switch ev.Status {
				case pipeboard.RunRunning:
					active++
					if active > maxActive {
						maxActive = active
					}
				case pipeboard.RunSucceeded:
					active--
				}
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, maxActive)
	})

	t.Run("cancellation stops the walk", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		status, err := Simulate(ctx, testWorkflow(), Options{
			StepDelay: time.Hour, // cancel interrupts the first node
			OnEvent: func(ev Event) {
				if ev.NodeID == "in" && ev.Status == pipeboard.RunRunning {
					cancel()
				}
			},
		})
		require.ErrorIs(t, err, context.Canceled)

		assert.Equal(t, pipeboard.RunCanceled, status["in"])
		assert.Equal(t, pipeboard.RunSkipped, status["work"])
		assert.Equal(t, pipeboard.RunSkipped, status["out"])
	})

	t.Run("empty workflow finishes immediately", func(t *testing.T) {
		status, err := Simulate(context.Background(), &pipeboard.Workflow{ID: "empty"}, Options{
			StepDelay: time.Millisecond,
		})
		require.NoError(t, err)
		assert.Empty(t, status)
	})

	t.Run("cyclic graph still terminates", func(t *testing.T) {
		w := &pipeboard.Workflow{
			ID: "cyclic",
			Nodes: []pipeboard.Node{
				{ID: "a", Type: pipeboard.NodeAgent},
				{ID: "b", Type: pipeboard.NodeAgent},
			},
			Edges: []pipeboard.Edge{
				{ID: "e1", Source: "a", Target: "b"},
				{ID: "e2", Source: "b", Target: "a"},
			},
		}
		status, err := Simulate(context.Background(), w, Options{StepDelay: time.Millisecond})
		require.NoError(t, err)
		assert.Len(t, status, 2)
	})
}

func TestRunOrder(t *testing.T) {
	t.Run("breadth before depth, workflow order within a level", func(t *testing.T) {
		nodes := []pipeboard.Node{
			{ID: "b1"}, {ID: "root"}, {ID: "b2"}, {ID: "leaf"},
		}
		edges := []pipeboard.Edge{
			{Source: "root", Target: "b1"},
			{Source: "root", Target: "b2"},
			{Source: "b1", Target: "leaf"},
			{Source: "b2", Target: "leaf"},
		}
		assert.Equal(t, []string{"root", "b1", "b2", "leaf"}, runOrder(nodes, edges))
	})

	t.Run("edges to foreign ids are ignored", func(t *testing.T) {
		nodes := []pipeboard.Node{{ID: "a"}}
		edges := []pipeboard.Edge{{Source: "a", Target: "ghost"}}
		assert.Equal(t, []string{"a"}, runOrder(nodes, edges))
	})
}
