// internal/policy/compiler.go
package policy

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/awmpietro/policy-blocks/internal/policy/condition"
)

// Compiler builds policies from DOT graphs. The node shape selects the block
// kind: circle for start, diamond for conditional (label is the condition),
// box for end (label is the output literal). Edges leaving a conditional
// carry label="true" or label="false".
type Compiler struct{}

func NewCompiler() *Compiler { return &Compiler{} }

func (c *Compiler) Compile(dot string) (*Policy, error) {
	ast, err := gographviz.ParseString(dot)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, fmt.Errorf("failed to analyze DOT: %w", err)
	}

	p := New(unquoteDOT(g.Name))
	byName := make(map[string]*Block, len(g.Nodes.Nodes))

	// 1) Nodes
	for _, n := range g.Nodes.Nodes {
		b, err := compileNode(n.Attrs)
		if err != nil {
			return nil, fmt.Errorf("invalid node %q: %w", n.Name, err)
		}
		if err := p.AddBlock(b); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		byName[n.Name] = b
	}

	// 2) Edges
	for _, e := range g.Edges.Edges {
		from, ok := byName[e.Src]
		if !ok {
			return nil, fmt.Errorf("edge references unknown source node %q", e.Src)
		}
		to, ok := byName[e.Dst]
		if !ok {
			return nil, fmt.Errorf("edge references unknown destination node %q", e.Dst)
		}

		switch from.Kind {
		case KindConditional:
			branch := strings.ToLower(getAttr(e.Attrs, "label"))
			switch branch {
			case "true":
				if from.NextTrue != nil {
					return nil, fmt.Errorf("node %q has more than one true edge", e.Src)
				}
				from.NextTrue = to
			case "false":
				if from.NextFalse != nil {
					return nil, fmt.Errorf("node %q has more than one false edge", e.Src)
				}
				from.NextFalse = to
			default:
				return nil, fmt.Errorf("edge %s->%s must be labelled true or false (got %q)", e.Src, e.Dst, branch)
			}
		default:
			// end blocks keep the link so Validate can report it
			if from.Next != nil {
				return nil, fmt.Errorf("node %q has more than one outgoing edge", e.Src)
			}
			from.Next = to
		}
	}

	return p, nil
}

func compileNode(attrs gographviz.Attrs) (*Block, error) {
	shape := strings.ToLower(getAttr(attrs, "shape"))
	label := getAttr(attrs, "label")

	switch shape {
	case "circle", "doublecircle", "mcircle":
		return NewStart(), nil
	case "diamond", "mdiamond":
		cond, err := condition.Parse(label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBlockSpec, err)
		}
		return NewConditional(Operator(cond.Operator), cond.Variable, cond.Value)
	case "box", "rect", "rectangle", "square":
		out, err := condition.ParseLiteral(label)
		if err != nil {
			return nil, fmt.Errorf("%w: end block output: %v", ErrInvalidBlockSpec, err)
		}
		return NewEnd(out)
	case "":
		return nil, fmt.Errorf("%w: missing shape attribute", ErrInvalidBlockSpec)
	}
	return nil, fmt.Errorf("%w: unsupported shape %q", ErrInvalidBlockSpec, shape)
}

// getAttr reads a Graphviz attribute without its surrounding quotes.
func getAttr(attrs gographviz.Attrs, key string) string {
	val, ok := attrs[gographviz.Attr(key)]
	if !ok {
		return ""
	}
	return unquoteDOT(strings.TrimSpace(val))
}

func unquoteDOT(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	}
	return s
}

func quoteDOT(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
