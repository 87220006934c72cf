package graph

import "strconv"

const (
	// BaseLoaderID is the conventional id of the distinguished checkpoint
	// loader node. Slot 0 is the model output, slot 1 the CLIP output.
	BaseLoaderID = "1"

	// DefaultLoRAStrength is the mid-range strength applied when a request
	// does not specify one.
	DefaultLoRAStrength = 0.8
)

// AdapterSpec names an ordered LoRA chain plus the strength applied to every
// link. Constructed per request, consumed once by ChainLoRAs.
type AdapterSpec struct {
	Adapters []string
	Strength float64
}

// ChainLoRAs inserts an ordered LoRA loader chain into a workflow and rewires
// downstream consumers of the base loader's model/clip outputs onto the end
// of the chain. With no adapters it is the identity and returns g itself.
//
// New node ids start at NextID and each chain node references only
// earlier-created nodes, so DAG-ness is preserved. Strength values pass
// through unclamped; range enforcement belongs to the adapter.
func ChainLoRAs(g Graph, spec AdapterSpec) Graph {
	if len(spec.Adapters) == 0 {
		return g
	}

	out := g.Clone()
	next := out.NextID()

	origModel := Ref{Node: BaseLoaderID, Slot: 0}
	origClip := Ref{Node: BaseLoaderID, Slot: 1}
	prevModel, prevClip := origModel, origClip

	chain := make(map[string]bool, len(spec.Adapters))
	for _, name := range spec.Adapters {
		id := strconv.Itoa(next)
		out[id] = &Node{
			ClassType: "LoraLoader",
			Inputs: map[string]any{
				"model":          prevModel,
				"clip":           prevClip,
				"lora_name":      name,
				"strength_model": spec.Strength,
				"strength_clip":  spec.Strength,
			},
		}
		chain[id] = true
		prevModel = Ref{Node: id, Slot: 0}
		prevClip = Ref{Node: id, Slot: 1}
		next++
	}

	// Narrow exact-match rewrite: only inputs still pointing at the original
	// base-loader outputs move to the chain tail. The chain itself is skipped
	// so the first adapter keeps its base-loader reference.
	for id, node := range out {
		if chain[id] {
			continue
		}
		for name, v := range node.Inputs {
			ref, ok := v.(Ref)
			if !ok {
				continue
			}
			switch ref {
			case origModel:
				node.Inputs[name] = prevModel
			case origClip:
				node.Inputs[name] = prevClip
			}
		}
	}

	return out
}
