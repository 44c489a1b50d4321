// A walkthrough of the editing workflow: build a graph through the editor,
// auto-layout it, undo/redo, persist it, and simulate a run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pipeboard/pipeboard"
	"github.com/pipeboard/pipeboard/editor"
	"github.com/pipeboard/pipeboard/layout"
	"github.com/pipeboard/pipeboard/memory"
	"github.com/pipeboard/pipeboard/runner"
)

func main() {
	ctx := context.Background()
	store := memory.New()

	// ── Build a graph in the editor ───────────────────────────────────
	ed := editor.New()
	ed.SetWorkflow(&pipeboard.Workflow{ID: "demo", Name: "Demo"})

	in := ed.AddNode(pipeboard.Node{
		Type: pipeboard.NodeInput,
		Data: pipeboard.NodeData{Label: "Ingest", Config: &pipeboard.InputConfig{Source: "s3://inbox"}},
	})
	extract := ed.AddNode(pipeboard.Node{
		Type: pipeboard.NodeAgent,
		Data: pipeboard.NodeData{Label: "Extract", Config: &pipeboard.AgentConfig{AgentID: "agent-extract"}},
	})
	out := ed.AddNode(pipeboard.Node{
		Type: pipeboard.NodeOutput,
		Data: pipeboard.NodeData{Label: "Archive"},
	})

	mustConnect(ed, in.ID, extract.ID)
	mustConnect(ed, extract.ID, out.ID)

	// Merge a field edit from the side panel (not undoable).
	if err := ed.UpdateNodeData(extract.ID, json.RawMessage(`{"entrypoint": "agents/extract:main"}`)); err != nil {
		log.Fatalf("update node: %v", err)
	}

	// ── Undo / redo ───────────────────────────────────────────────────
	ed.Undo() // drop the extract→out edge
	fmt.Printf("after undo: %d edges\n", len(ed.Workflow().Edges))
	ed.Redo()
	fmt.Printf("after redo: %d edges\n", len(ed.Workflow().Edges))

	// ── Auto-layout and persist ───────────────────────────────────────
	w := ed.Workflow()
	layout.Apply(w.Nodes, w.Edges, layout.DefaultOptions())
	if _, err := store.CreateWorkflow(ctx, w); err != nil {
		log.Fatalf("create workflow: %v", err)
	}
	for _, n := range w.Nodes {
		fmt.Printf("%-10s at (%.0f, %.0f)\n", n.Data.Label, n.Position.X, n.Position.Y)
	}

	// ── Simulate a run ────────────────────────────────────────────────
	status, err := runner.Simulate(ctx, w, runner.Options{
		StepDelay: 50 * time.Millisecond,
		OnEvent: func(ev runner.Event) {
			fmt.Printf("node %s -> %s\n", ev.NodeID, ev.Status)
		},
	})
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	fmt.Printf("run finished, %d nodes succeeded\n", len(status))
}

func mustConnect(ed *editor.Editor, source, target string) {
	if _, err := ed.Connect(editor.Connection{Source: source, Target: target}); err != nil {
		log.Fatalf("connect %s -> %s: %v", source, target, err)
	}
}
