package graph

import (
	"encoding/json"
	"testing"

	"github.com/deadweight/argon/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphWireFormat(t *testing.T) {
	g := Graph{
		"1": {ClassType: "CheckpointLoaderSimple", Inputs: map[string]any{"ckpt_name": "base.safetensors"}},
		"2": {ClassType: "CLIPTextEncode", Inputs: map[string]any{"text": "hello", "clip": Ref{Node: "1", Slot: 1}}},
	}

	data, err := json.Marshal(g)
	require.NoError(t, err)

	// References serialize as ["id", slot] arrays, literals as themselves.
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{"1", float64(1)}, raw["2"]["inputs"].(map[string]any)["clip"])
	assert.Equal(t, "hello", raw["2"]["inputs"].(map[string]any)["text"])

	var decoded Graph
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Ref{Node: "1", Slot: 1}, decoded["2"].Inputs["clip"])
	assert.Equal(t, "hello", decoded["2"].Inputs["text"])
}

func TestGraphNextID(t *testing.T) {
	g := Graph{
		"1": {ClassType: "A", Inputs: map[string]any{}},
		"7": {ClassType: "B", Inputs: map[string]any{}},
		"3": {ClassType: "C", Inputs: map[string]any{}},
	}
	assert.Equal(t, 8, g.NextID())

	empty := Graph{}
	assert.Equal(t, 1, empty.NextID())
}

func TestGraphClone_Isolated(t *testing.T) {
	g := Graph{
		"1": {ClassType: "A", Inputs: map[string]any{"x": "original"}},
	}
	clone := g.Clone()
	clone["1"].Inputs["x"] = "mutated"
	clone["2"] = &Node{ClassType: "B", Inputs: map[string]any{}}

	assert.Equal(t, "original", g["1"].Inputs["x"])
	assert.Len(t, g, 1)
}

func TestGraphValidate(t *testing.T) {
	valid := Graph{
		"1": {ClassType: "A", Inputs: map[string]any{}},
		"2": {ClassType: "B", Inputs: map[string]any{"in": Ref{Node: "1", Slot: 0}}},
	}
	assert.NoError(t, valid.Validate())

	dangling := Graph{
		"1": {ClassType: "A", Inputs: map[string]any{"in": Ref{Node: "9", Slot: 0}}},
	}
	err := dangling.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedReference)

	cyclic := Graph{
		"1": {ClassType: "A", Inputs: map[string]any{"in": Ref{Node: "2", Slot: 0}}},
		"2": {ClassType: "B", Inputs: map[string]any{"in": Ref{Node: "1", Slot: 0}}},
	}
	assert.Error(t, cyclic.Validate())
}

func TestBuiltinTemplatesAreValid(t *testing.T) {
	for name, tpl := range map[string]Graph{
		"dwpose":          WorkflowDWPose,
		"birefnet":        WorkflowBiRefNet,
		"liveportrait":    WorkflowLivePortrait,
		"sdxl":            WorkflowSDXL,
		"pose_controlnet": WorkflowPoseControlNet,
	} {
		assert.NoError(t, tpl.Validate(), "template %s", name)
	}
}
