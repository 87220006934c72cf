package graph

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/deadweight/argon/pkg/domain"
)

// Ref is an output-reference: the id of the producing node plus a zero-based
// output slot. On the wire it is the two-element array ["id", slot].
type Ref struct {
	Node string
	Slot int
}

// MarshalJSON encodes the reference in executor array form.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Node, r.Slot})
}

// UnmarshalJSON decodes ["id", slot]. Anything else is an error so literal
// decoding can fall through.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &r.Node); err != nil {
		return fmt.Errorf("ref node id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Slot); err != nil {
		return fmt.Errorf("ref slot: %w", err)
	}
	return nil
}

// Node is a single operator invocation: the executor-side operation kind and
// its named inputs. Input values are literals (string, number, bool) or Refs.
type Node struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// UnmarshalJSON decodes inputs, recognising two-element arrays as Refs.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ClassType string                     `json:"class_type"`
		Inputs    map[string]json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.ClassType = raw.ClassType
	n.Inputs = make(map[string]any, len(raw.Inputs))
	for name, rawVal := range raw.Inputs {
		n.Inputs[name] = decodeInput(rawVal)
	}
	return nil
}

func decodeInput(raw json.RawMessage) any {
	var ref Ref
	if err := ref.UnmarshalJSON(raw); err == nil {
		return ref
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// Clone returns a deep copy of the node. Input values themselves are
// immutable (Ref is a value type, literals are scalars).
func (n *Node) Clone() *Node {
	inputs := make(map[string]any, len(n.Inputs))
	for k, v := range n.Inputs {
		inputs[k] = v
	}
	return &Node{ClassType: n.ClassType, Inputs: inputs}
}

// Graph maps node id to node. Ids are opaque strings, conventionally
// monotonically increasing decimal numerals.
type Graph map[string]*Node

// Clone returns a deep copy safe to mutate independently of the receiver.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for id, node := range g {
		out[id] = node.Clone()
	}
	return out
}

// NextID returns one greater than the largest numeric node id, or 1 for a
// graph with no numeric ids.
func (g Graph) NextID() int {
	max := 0
	for id := range g {
		if n, err := strconv.Atoi(id); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// Validate checks that every output-reference resolves to an existing node
// and that the reference structure is acyclic.
func (g Graph) Validate() error {
	for id, node := range g {
		for name, v := range node.Inputs {
			ref, ok := v.(Ref)
			if !ok {
				continue
			}
			if _, exists := g[ref.Node]; !exists {
				return fmt.Errorf("%w: node %s input %s references %s", domain.ErrUnresolvedReference, id, name, ref.Node)
			}
		}
	}

	// Cycle check via three-colour DFS over reference edges.
	const (
		white = 0
		grey  = 1
		black = 2
	)
	colour := make(map[string]int, len(g))
	var visit func(id string) error
	visit = func(id string) error {
		colour[id] = grey
		for _, v := range g[id].Inputs {
			ref, ok := v.(Ref)
			if !ok {
				continue
			}
			switch colour[ref.Node] {
			case grey:
				return fmt.Errorf("graph contains a cycle through node %s", ref.Node)
			case white:
				if err := visit(ref.Node); err != nil {
					return err
				}
			}
		}
		colour[id] = black
		return nil
	}
	for id := range g {
		if colour[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
