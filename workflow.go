package pipeboard

import "time"

// Workflow is a directed graph of nodes and edges built in the visual editor.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// NodeType tags a node with the kind of work or control flow it represents.
type NodeType string

const (
	NodeAgent     NodeType = "agent"
	NodeCondition NodeType = "condition"
	NodeInput     NodeType = "input"
	NodeOutput    NodeType = "output"
	NodeParallel  NodeType = "parallel"
	NodeMerge     NodeType = "merge"
)

// Position is a node's location on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex in a workflow graph. IDs are caller-generated and must be
// unique within the workflow.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge is a directed connection between two node ports.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
}

// Touches reports whether the edge has the node as either endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}
