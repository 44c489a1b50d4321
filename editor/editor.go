// Package editor holds the in-memory state of one workflow graph while it is
// being edited: nodes, edges, the current selection, and a bounded undo/redo
// history. All mutation goes through Editor methods; nothing else owns the
// slices, so cascade rules cannot be bypassed.
package editor

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/pipeboard/pipeboard"
)

// HistoryLimit bounds the undo and redo stacks. Older snapshots are evicted.
const HistoryLimit = 50

// Connection is a connect gesture between two node ports.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Editor is the single source of truth for a workflow graph under edit.
// It is not safe for concurrent use; callers serialize access.
type Editor struct {
	meta     pipeboard.Workflow
	nodes    []pipeboard.Node
	edges    []pipeboard.Edge
	selected string

	past   *history
	future *history
}

// New returns an empty editor.
func New() *Editor {
	return &Editor{
		past:   newHistory(HistoryLimit),
		future: newHistory(HistoryLimit),
	}
}

// SetWorkflow replaces the whole graph and resets history and selection.
// Used on screen entry; the input is not validated.
func (e *Editor) SetWorkflow(w *pipeboard.Workflow) {
	e.meta = *w
	e.meta.Nodes = nil
	e.meta.Edges = nil
	e.nodes = cloneNodes(w.Nodes)
	e.edges = cloneEdges(w.Edges)
	e.selected = ""
	e.past.clear()
	e.future.clear()
}

// AddNode snapshots, appends the node, and selects it. An empty ID gets a
// generated UUID; a non-empty ID is trusted to be unique.
func (e *Editor) AddNode(n pipeboard.Node) pipeboard.Node {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	e.checkpoint()
	e.nodes = append(e.nodes, n)
	e.selected = n.ID
	return n
}

// UpdateNodeData merges a partial data payload into a node. Not undoable:
// field edits from the side panel arrive keystroke by keystroke and would
// drown the history. No-op when the id is absent.
func (e *Editor) UpdateNodeData(id string, partial json.RawMessage) error {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			return e.nodes[i].Data.Merge(e.nodes[i].Type, partial)
		}
	}
	return nil
}

// MoveNode records a node's new canvas position. Like data edits, drags are
// continuous input and are not undoable.
func (e *Editor) MoveNode(id string, pos pipeboard.Position) {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			e.nodes[i].Position = pos
			return
		}
	}
}

// DeleteNode snapshots, removes the node, cascade-removes every edge that
// touches it, and clears the selection. No-op when the id is absent.
func (e *Editor) DeleteNode(id string) {
	idx := -1
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	e.checkpoint()
	e.nodes = append(e.nodes[:idx], e.nodes[idx+1:]...)
	kept := e.edges[:0]
	for _, edge := range e.edges {
		if !edge.Touches(id) {
			kept = append(kept, edge)
		}
	}
	e.edges = kept
	e.selected = ""
}

// Connect snapshots and appends a new edge for the gesture. Both endpoints
// must reference existing nodes; a dangling endpoint is rejected instead of
// producing an edge the canvas cannot draw.
func (e *Editor) Connect(c Connection) (pipeboard.Edge, error) {
	if !e.hasNode(c.Source) || !e.hasNode(c.Target) {
		return pipeboard.Edge{}, pipeboard.ErrUnknownEndpoint
	}
	edge := pipeboard.Edge{
		ID:           uuid.NewString(),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
	}
	e.checkpoint()
	e.edges = append(e.edges, edge)
	return edge, nil
}

// Undo restores the most recent snapshot. Returns false at the boundary.
func (e *Editor) Undo() bool {
	s, ok := e.past.pop()
	if !ok {
		return false
	}
	e.future.push(e.capture())
	e.restore(s)
	return true
}

// Redo reapplies the most recently undone snapshot. Returns false at the
// boundary.
func (e *Editor) Redo() bool {
	s, ok := e.future.pop()
	if !ok {
		return false
	}
	e.past.push(e.capture())
	e.restore(s)
	return true
}

// CanUndo reports whether an undo step is available.
func (e *Editor) CanUndo() bool { return e.past.len() > 0 }

// CanRedo reports whether a redo step is available.
func (e *Editor) CanRedo() bool { return e.future.len() > 0 }

// Select marks a node as selected. No-op when the id is absent.
func (e *Editor) Select(id string) {
	if e.hasNode(id) {
		e.selected = id
	}
}

// ClearSelection drops the selection (canvas background click).
func (e *Editor) ClearSelection() { e.selected = "" }

// Selected returns the selected node id, or "" when nothing is selected.
func (e *Editor) Selected() string { return e.selected }

// Workflow returns a deep copy of the current graph with the editor's
// metadata attached.
func (e *Editor) Workflow() *pipeboard.Workflow {
	w := e.meta
	w.Nodes = cloneNodes(e.nodes)
	w.Edges = cloneEdges(e.edges)
	return &w
}

// checkpoint pushes the current state onto the undo stack and clears the
// redo stack. Every snapshotting mutation goes through here.
func (e *Editor) checkpoint() {
	e.past.push(e.capture())
	e.future.clear()
}

func (e *Editor) capture() snapshot {
	return snapshot{nodes: cloneNodes(e.nodes), edges: cloneEdges(e.edges)}
}

func (e *Editor) restore(s snapshot) {
	e.nodes = s.nodes
	e.edges = s.edges
	if e.selected != "" && !e.hasNode(e.selected) {
		e.selected = ""
	}
}

func (e *Editor) hasNode(id string) bool {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			return true
		}
	}
	return false
}

func cloneNodes(nodes []pipeboard.Node) []pipeboard.Node {
	out := make([]pipeboard.Node, len(nodes))
	for i, n := range nodes {
		n.Data = n.Data.Clone()
		out[i] = n
	}
	return out
}

func cloneEdges(edges []pipeboard.Edge) []pipeboard.Edge {
	out := make([]pipeboard.Edge, len(edges))
	copy(out, edges)
	return out
}
