package graph

import (
	"fmt"

	"github.com/deadweight/argon/pkg/domain"
)

// Placeholder returns the sentinel value marking an instantiation slot named
// name. The sentinel is always an entire input value, never a substring, so
// substitution can never corrupt unrelated content that happens to contain
// the sentinel text.
func Placeholder(name string) string {
	return "__" + name + "__"
}

// Instantiate fills placeholder slots in a template with literal values and
// returns a new graph; the template is never mutated.
//
// For each binding, every input value that exactly equals the binding's
// sentinel is replaced with the typed literal. Substitution is structural,
// not textual, so string values containing reserved characters stay valid on
// the wire. Placeholders with no matching binding are left untouched; callers
// own completeness. Object and array bindings are rejected.
func Instantiate(tpl Graph, bindings map[string]any) (Graph, error) {
	for name, v := range bindings {
		switch v.(type) {
		case string, bool, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, float32, float64:
		default:
			return nil, fmt.Errorf("%w: binding %q is %T", domain.ErrUnsupportedBinding, name, v)
		}
	}

	g := tpl.Clone()
	for _, node := range g {
		for input, val := range node.Inputs {
			s, ok := val.(string)
			if !ok {
				continue
			}
			for name, bound := range bindings {
				if s == Placeholder(name) {
					node.Inputs[input] = bound
					break
				}
			}
		}
	}
	return g, nil
}
