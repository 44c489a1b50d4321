package pipeboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeJSON(t *testing.T) {
	t.Run("data payload is one flat object", func(t *testing.T) {
		n := Node{
			ID:       "n1",
			Type:     NodeAgent,
			Position: Position{X: 10, Y: 20},
			Data: NodeData{
				Label:  "Extract",
				Config: &AgentConfig{AgentID: "agent-1", Entrypoint: "run:main"},
			},
		}

		raw, err := json.Marshal(n)
		require.NoError(t, err)

		var wire map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &wire))

		var data map[string]any
		require.NoError(t, json.Unmarshal(wire["data"], &data))
		assert.Equal(t, "Extract", data["label"])
		assert.Equal(t, "agent-1", data["agent_id"])
		assert.Equal(t, "run:main", data["entrypoint"])
	})

	t.Run("type tag selects the config variant", func(t *testing.T) {
		cases := []struct {
			name string
			in   string
			want NodeConfig
		}{
			{
				name: "agent",
				in:   `{"id":"n","type":"agent","position":{"x":0,"y":0},"data":{"label":"A","agent_id":"x"}}`,
				want: &AgentConfig{AgentID: "x"},
			},
			{
				name: "condition",
				in:   `{"id":"n","type":"condition","position":{"x":0,"y":0},"data":{"label":"C","expression":"score > 1"}}`,
				want: &ConditionConfig{Expression: "score > 1"},
			},
			{
				name: "input",
				in:   `{"id":"n","type":"input","position":{"x":0,"y":0},"data":{"label":"I","source":"s3://x"}}`,
				want: &InputConfig{Source: "s3://x"},
			},
			{
				name: "output",
				in:   `{"id":"n","type":"output","position":{"x":0,"y":0},"data":{"label":"O","destination":"s3://y"}}`,
				want: &OutputConfig{Destination: "s3://y"},
			},
			{
				name: "parallel",
				in:   `{"id":"n","type":"parallel","position":{"x":0,"y":0},"data":{"label":"P","branches":3}}`,
				want: &ParallelConfig{Branches: 3},
			},
			{
				name: "merge",
				in:   `{"id":"n","type":"merge","position":{"x":0,"y":0},"data":{"label":"M","strategy":"first"}}`,
				want: &MergeConfig{Strategy: "first"},
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				var n Node
				require.NoError(t, json.Unmarshal([]byte(tc.in), &n))
				assert.Equal(t, tc.want, n.Data.Config)
			})
		}
	})

	t.Run("round trip preserves the node", func(t *testing.T) {
		in := Node{
			ID:       "n1",
			Type:     NodeCondition,
			Position: Position{X: 1, Y: 2},
			Data:     NodeData{Label: "Check", Config: &ConditionConfig{Expression: "x"}},
		}
		raw, err := json.Marshal(in)
		require.NoError(t, err)

		var out Node
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, in, out)
	})

	t.Run("missing data yields the zero variant", func(t *testing.T) {
		var n Node
		require.NoError(t, json.Unmarshal([]byte(`{"id":"n","type":"merge","position":{"x":0,"y":0}}`), &n))
		assert.Equal(t, &MergeConfig{}, n.Data.Config)
	})

	t.Run("unknown type keeps a nil config", func(t *testing.T) {
		var n Node
		require.NoError(t, json.Unmarshal([]byte(`{"id":"n","type":"mystery","data":{"label":"?","x":1}}`), &n))
		assert.Equal(t, "?", n.Data.Label)
		assert.Nil(t, n.Data.Config)
	})
}

func TestNodeDataMerge(t *testing.T) {
	t.Run("partial overwrites only named fields", func(t *testing.T) {
		d := NodeData{Label: "old", Config: &AgentConfig{AgentID: "keep", Entrypoint: "old:main"}}

		require.NoError(t, d.Merge(NodeAgent, json.RawMessage(`{"entrypoint": "new:main"}`)))

		cfg := d.Config.(*AgentConfig)
		assert.Equal(t, "old", d.Label)
		assert.Equal(t, "keep", cfg.AgentID)
		assert.Equal(t, "new:main", cfg.Entrypoint)
	})

	t.Run("label key replaces the label", func(t *testing.T) {
		d := NodeData{Label: "old"}
		require.NoError(t, d.Merge(NodeMerge, json.RawMessage(`{"label": "new"}`)))
		assert.Equal(t, "new", d.Label)
	})

	t.Run("merge into empty data allocates the variant", func(t *testing.T) {
		var d NodeData
		require.NoError(t, d.Merge(NodeCondition, json.RawMessage(`{"expression": "a > b"}`)))
		assert.Equal(t, &ConditionConfig{Expression: "a > b"}, d.Config)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		var d NodeData
		assert.Error(t, d.Merge(NodeAgent, json.RawMessage(`{broken`)))
	})
}

func TestNodeDataClone(t *testing.T) {
	d := NodeData{
		Label:  "a",
		Config: &AgentConfig{Parameters: map[string]any{"k": "v"}},
	}
	cp := d.Clone()
	cp.Config.(*AgentConfig).Parameters["k"] = "changed"

	assert.Equal(t, "v", d.Config.(*AgentConfig).Parameters["k"])
}

func TestValidateEdges(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}

	t.Run("accepts edges between known nodes", func(t *testing.T) {
		assert.NoError(t, ValidateEdges(nodes, []Edge{{Source: "a", Target: "b"}}))
	})

	t.Run("rejects a dangling source", func(t *testing.T) {
		err := ValidateEdges(nodes, []Edge{{Source: "ghost", Target: "b"}})
		assert.ErrorIs(t, err, ErrUnknownEndpoint)
	})

	t.Run("rejects a dangling target", func(t *testing.T) {
		err := ValidateEdges(nodes, []Edge{{Source: "a", Target: "ghost"}})
		assert.ErrorIs(t, err, ErrUnknownEndpoint)
	})
}
