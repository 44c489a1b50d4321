package pipeboard

import (
	"encoding/json"
	"fmt"
)

// NodeData is a node's editable payload: a display label plus one typed
// config variant per node kind. On the wire it is a single flat JSON object
// ({"label": ..., <config fields>}); the variant is chosen by the owning
// node's type tag.
type NodeData struct {
	Label  string
	Config NodeConfig
}

// NodeConfig is the closed set of per-kind node configurations.
type NodeConfig interface {
	clone() NodeConfig
}

// AgentConfig configures an agent-call node.
type AgentConfig struct {
	AgentID    string         `json:"agent_id,omitempty"`
	Entrypoint string         `json:"entrypoint,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ConditionConfig configures a branching node.
type ConditionConfig struct {
	Expression string `json:"expression,omitempty"`
}

// InputConfig configures a workflow entry node.
type InputConfig struct {
	Source string `json:"source,omitempty"`
	Format string `json:"format,omitempty"`
}

// OutputConfig configures a workflow exit node.
type OutputConfig struct {
	Destination string `json:"destination,omitempty"`
	Format      string `json:"format,omitempty"`
}

// ParallelConfig configures a fan-out node.
type ParallelConfig struct {
	Branches int `json:"branches,omitempty"`
}

// MergeConfig configures a fan-in node.
type MergeConfig struct {
	Strategy string `json:"strategy,omitempty"`
}

func (c *AgentConfig) clone() NodeConfig {
	out := *c
	if c.Parameters != nil {
		out.Parameters = make(map[string]any, len(c.Parameters))
		for k, v := range c.Parameters {
			out.Parameters[k] = v
		}
	}
	return &out
}

func (c *ConditionConfig) clone() NodeConfig { out := *c; return &out }
func (c *InputConfig) clone() NodeConfig     { out := *c; return &out }
func (c *OutputConfig) clone() NodeConfig    { out := *c; return &out }
func (c *ParallelConfig) clone() NodeConfig  { out := *c; return &out }
func (c *MergeConfig) clone() NodeConfig     { out := *c; return &out }

// newConfig returns the zero config variant for a node type, or nil for an
// unrecognized type.
func newConfig(t NodeType) NodeConfig {
	switch t {
	case NodeAgent:
		return &AgentConfig{}
	case NodeCondition:
		return &ConditionConfig{}
	case NodeInput:
		return &InputConfig{}
	case NodeOutput:
		return &OutputConfig{}
	case NodeParallel:
		return &ParallelConfig{}
	case NodeMerge:
		return &MergeConfig{}
	}
	return nil
}

// Clone returns a deep copy of the data payload.
func (d NodeData) Clone() NodeData {
	out := NodeData{Label: d.Label}
	if d.Config != nil {
		out.Config = d.Config.clone()
	}
	return out
}

// Merge applies a partial data payload on top of the existing one. A "label"
// key replaces the label; any config keys present overwrite the matching
// fields of the variant for the given node type. Keys the variant does not
// know are dropped.
func (d *NodeData) Merge(t NodeType, partial json.RawMessage) error {
	if len(partial) == 0 {
		return nil
	}
	var label struct {
		Label *string `json:"label"`
	}
	if err := json.Unmarshal(partial, &label); err != nil {
		return fmt.Errorf("pipeboard: merge node data: %w", err)
	}
	if label.Label != nil {
		d.Label = *label.Label
	}
	if d.Config == nil {
		d.Config = newConfig(t)
	}
	if d.Config != nil {
		if err := json.Unmarshal(partial, d.Config); err != nil {
			return fmt.Errorf("pipeboard: merge node data: %w", err)
		}
	}
	return nil
}

// Payload returns the flat JSON object form of the data payload, as stored
// in the "data" column and wire field.
func (d NodeData) Payload() (json.RawMessage, error) { return d.marshal() }

// DecodePayload parses a flat data payload for a node of the given type.
func DecodePayload(t NodeType, raw json.RawMessage) (NodeData, error) {
	var d NodeData
	if err := d.unmarshal(t, raw); err != nil {
		return NodeData{}, fmt.Errorf("pipeboard: decode node data: %w", err)
	}
	return d, nil
}

func (d NodeData) marshal() (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if d.Config != nil {
		raw, err := json.Marshal(d.Config)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}
	lbl, err := json.Marshal(d.Label)
	if err != nil {
		return nil, err
	}
	fields["label"] = lbl
	return json.Marshal(fields)
}

func (d *NodeData) unmarshal(t NodeType, raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		d.Label = ""
		d.Config = newConfig(t)
		return nil
	}
	var label struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(raw, &label); err != nil {
		return err
	}
	d.Label = label.Label
	d.Config = newConfig(t)
	if d.Config != nil {
		return json.Unmarshal(raw, d.Config)
	}
	return nil
}

type nodeWire struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
}

// MarshalJSON flattens the data payload into a single "data" object.
func (n Node) MarshalJSON() ([]byte, error) {
	data, err := n.Data.marshal()
	if err != nil {
		return nil, fmt.Errorf("pipeboard: marshal node %s: %w", n.ID, err)
	}
	return json.Marshal(nodeWire{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Data:     data,
	})
}

// UnmarshalJSON picks the config variant from the node's type tag.
func (n *Node) UnmarshalJSON(b []byte) error {
	var w nodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	n.ID = w.ID
	n.Type = w.Type
	n.Position = w.Position
	if err := n.Data.unmarshal(w.Type, w.Data); err != nil {
		return fmt.Errorf("pipeboard: unmarshal node %s: %w", n.ID, err)
	}
	return nil
}
