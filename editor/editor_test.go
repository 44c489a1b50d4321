package editor

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeboard/pipeboard"
)

func newTestEditor() *Editor {
	ed := New()
	ed.SetWorkflow(&pipeboard.Workflow{ID: "wf", Name: "test"})
	return ed
}

func node(id string) pipeboard.Node {
	return pipeboard.Node{ID: id, Type: pipeboard.NodeAgent, Data: pipeboard.NodeData{Label: id}}
}

func TestAddNode(t *testing.T) {
	t.Run("appends and selects the node", func(t *testing.T) {
		ed := newTestEditor()
		n := ed.AddNode(node("a"))

		w := ed.Workflow()
		require.Len(t, w.Nodes, 1)
		assert.Equal(t, "a", w.Nodes[0].ID)
		assert.Equal(t, n.ID, ed.Selected())
	})

	t.Run("generates an id when empty", func(t *testing.T) {
		ed := newTestEditor()
		n := ed.AddNode(pipeboard.Node{Type: pipeboard.NodeInput})
		assert.NotEmpty(t, n.ID)
	})
}

func TestDeleteNode(t *testing.T) {
	t.Run("cascade-removes every touching edge", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		ed.AddNode(node("b"))
		ed.AddNode(node("c"))
		mustConnect(t, ed, "a", "b")
		mustConnect(t, ed, "b", "c")
		mustConnect(t, ed, "a", "c")

		ed.DeleteNode("b")

		w := ed.Workflow()
		require.Len(t, w.Nodes, 2)
		require.Len(t, w.Edges, 1)
		assert.Equal(t, "a", w.Edges[0].Source)
		assert.Equal(t, "c", w.Edges[0].Target)
	})

	t.Run("clears the selection", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		require.Equal(t, "a", ed.Selected())

		ed.DeleteNode("a")
		assert.Empty(t, ed.Selected())
	})

	t.Run("absent id is a no-op and does not snapshot", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))

		ed.DeleteNode("missing")
		assert.Len(t, ed.Workflow().Nodes, 1)

		// One undo (for AddNode) must empty the graph.
		require.True(t, ed.Undo())
		assert.Empty(t, ed.Workflow().Nodes)
		assert.False(t, ed.CanUndo())
	})
}

func TestConnect(t *testing.T) {
	t.Run("appends an edge with a generated id", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		ed.AddNode(node("b"))

		edge, err := ed.Connect(Connection{Source: "a", Target: "b", SourceHandle: "out"})
		require.NoError(t, err)
		assert.NotEmpty(t, edge.ID)

		w := ed.Workflow()
		require.Len(t, w.Edges, 1)
		assert.Equal(t, "out", w.Edges[0].SourceHandle)
	})

	t.Run("rejects unknown endpoints", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))

		_, err := ed.Connect(Connection{Source: "a", Target: "ghost"})
		require.ErrorIs(t, err, pipeboard.ErrUnknownEndpoint)
		assert.Empty(t, ed.Workflow().Edges)
		assert.False(t, ed.CanUndo(), "rejected connect must not snapshot")
	})
}

func TestUpdateNodeData(t *testing.T) {
	t.Run("merges fields without snapshotting", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(pipeboard.Node{
			ID:   "a",
			Type: pipeboard.NodeAgent,
			Data: pipeboard.NodeData{Label: "old", Config: &pipeboard.AgentConfig{AgentID: "x"}},
		})

		err := ed.UpdateNodeData("a", json.RawMessage(`{"label": "new", "entrypoint": "run:main"}`))
		require.NoError(t, err)

		w := ed.Workflow()
		assert.Equal(t, "new", w.Nodes[0].Data.Label)
		cfg := w.Nodes[0].Data.Config.(*pipeboard.AgentConfig)
		assert.Equal(t, "x", cfg.AgentID, "untouched fields survive the merge")
		assert.Equal(t, "run:main", cfg.Entrypoint)

		ed.Undo()
		assert.Empty(t, ed.Workflow().Nodes, "data edit did not add an undo step")
	})

	t.Run("absent id is a no-op", func(t *testing.T) {
		ed := newTestEditor()
		require.NoError(t, ed.UpdateNodeData("ghost", json.RawMessage(`{"label": "x"}`)))
	})
}

func TestUndoRedo(t *testing.T) {
	t.Run("n undos return to the initial graph", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		ed.AddNode(node("b"))
		mustConnect(t, ed, "a", "b")
		ed.DeleteNode("a")

		for i := 0; i < 4; i++ {
			require.True(t, ed.Undo(), "undo %d", i)
		}
		w := ed.Workflow()
		assert.Empty(t, w.Nodes)
		assert.Empty(t, w.Edges)
		assert.False(t, ed.Undo(), "no-op at the boundary")
	})

	t.Run("redo after undo restores the undone state exactly", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		ed.AddNode(node("b"))
		mustConnect(t, ed, "a", "b")
		before := ed.Workflow()

		require.True(t, ed.Undo())
		require.True(t, ed.Redo())

		after := ed.Workflow()
		assert.Equal(t, before.Nodes, after.Nodes)
		assert.Equal(t, before.Edges, after.Edges)
		assert.False(t, ed.Redo(), "no-op at the boundary")
	})

	t.Run("mutation clears redo history", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		ed.AddNode(node("b"))
		require.True(t, ed.Undo())
		require.True(t, ed.CanRedo())

		ed.AddNode(node("c"))
		assert.False(t, ed.CanRedo())
	})

	t.Run("spec scenario: add, add, connect, undo x2, redo x2", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("A"))
		ed.AddNode(node("B"))
		mustConnect(t, ed, "A", "B")

		require.True(t, ed.Undo())
		w := ed.Workflow()
		assert.Len(t, w.Nodes, 2)
		assert.Empty(t, w.Edges)

		require.True(t, ed.Undo())
		w = ed.Workflow()
		require.Len(t, w.Nodes, 1)
		assert.Equal(t, "A", w.Nodes[0].ID)
		assert.Empty(t, w.Edges)

		require.True(t, ed.Redo())
		require.True(t, ed.Redo())
		w = ed.Workflow()
		require.Len(t, w.Nodes, 2)
		require.Len(t, w.Edges, 1)
		assert.Equal(t, "A", w.Edges[0].Source)
		assert.Equal(t, "B", w.Edges[0].Target)
	})

	t.Run("history is bounded and evicts oldest snapshots", func(t *testing.T) {
		ed := newTestEditor()
		for i := 0; i < HistoryLimit+10; i++ {
			ed.AddNode(node(fmt.Sprintf("n%03d", i)))
		}

		undos := 0
		for ed.Undo() {
			undos++
		}
		assert.Equal(t, HistoryLimit, undos)
		// The oldest 10 additions fell off the history and survive.
		assert.Len(t, ed.Workflow().Nodes, 10)
	})

	t.Run("undo drops selection of a node that no longer exists", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))
		ed.AddNode(node("b"))
		require.Equal(t, "b", ed.Selected())

		require.True(t, ed.Undo())
		assert.Empty(t, ed.Selected())
	})
}

func TestSetWorkflow(t *testing.T) {
	t.Run("replaces graph and resets history", func(t *testing.T) {
		ed := newTestEditor()
		ed.AddNode(node("a"))

		ed.SetWorkflow(&pipeboard.Workflow{
			ID:    "other",
			Nodes: []pipeboard.Node{node("x"), node("y")},
			Edges: []pipeboard.Edge{{ID: "e", Source: "x", Target: "y"}},
		})

		w := ed.Workflow()
		assert.Equal(t, "other", w.ID)
		assert.Len(t, w.Nodes, 2)
		assert.Len(t, w.Edges, 1)
		assert.False(t, ed.CanUndo())
		assert.False(t, ed.CanRedo())
		assert.Empty(t, ed.Selected())
	})

	t.Run("editor state is isolated from the input", func(t *testing.T) {
		ed := New()
		src := &pipeboard.Workflow{Nodes: []pipeboard.Node{node("a")}}
		ed.SetWorkflow(src)

		src.Nodes[0].Data.Label = "mutated"
		assert.Equal(t, "a", ed.Workflow().Nodes[0].Data.Label)
	})
}

func TestSelection(t *testing.T) {
	ed := newTestEditor()
	ed.AddNode(node("a"))
	ed.AddNode(node("b"))

	ed.Select("a")
	assert.Equal(t, "a", ed.Selected())

	ed.Select("ghost")
	assert.Equal(t, "a", ed.Selected(), "unknown id leaves selection alone")

	ed.ClearSelection()
	assert.Empty(t, ed.Selected())
}

func mustConnect(t *testing.T, ed *Editor, source, target string) {
	t.Helper()
	_, err := ed.Connect(Connection{Source: source, Target: target})
	require.NoError(t, err)
}
