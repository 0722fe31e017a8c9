package policy

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"github.com/awmpietro/policy-blocks/internal/policy/condition"
)

// DOT renders p in the format Compiler reads. Node names are derived from
// block kind and position; block identifiers go into the tooltip. Target
// variables that are not plain identifiers (spaces, dots, dashes) cannot be
// written as a condition label and make DOT fail.
func DOT(p *Policy) (string, error) {
	g := gographviz.NewGraph()
	graphName := quoteDOT(p.Name)
	if err := g.SetName(graphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	names := make(map[*Block]string, p.Len())
	for i, b := range p.blocks {
		name := fmt.Sprintf("%s_%d", b.Kind, i)
		names[b] = name

		attrs := map[string]string{
			"shape":   shapeOf(b.Kind),
			"tooltip": quoteDOT(b.ID.String()),
		}
		switch b.Kind {
		case KindConditional:
			if !condition.IsVariable(b.TargetVariable) {
				return "", fmt.Errorf("block %s: target_variable %q is not representable in DOT", b.ID, b.TargetVariable)
			}
			attrs["label"] = quoteDOT(b.Condition())
		case KindEnd:
			attrs["label"] = quoteDOT(condition.Literal(b.OutputValue))
		default:
			attrs["label"] = quoteDOT(string(b.Kind))
		}
		if err := g.AddNode(graphName, name, attrs); err != nil {
			return "", fmt.Errorf("add node %s: %w", b.ID, err)
		}
	}

	edge := func(from, to *Block, label string) error {
		dst, ok := names[to]
		if !ok {
			return nil
		}
		var attrs map[string]string
		if label != "" {
			attrs = map[string]string{"label": quoteDOT(label)}
		}
		return g.AddEdge(names[from], dst, true, attrs)
	}

	for _, b := range p.blocks {
		if err := edge(b, b.Next, ""); err != nil {
			return "", err
		}
		if err := edge(b, b.NextTrue, "true"); err != nil {
			return "", err
		}
		if err := edge(b, b.NextFalse, "false"); err != nil {
			return "", err
		}
	}

	return g.String(), nil
}

func shapeOf(k BlockKind) string {
	switch k {
	case KindStart:
		return "circle"
	case KindConditional:
		return "diamond"
	default:
		return "box"
	}
}
