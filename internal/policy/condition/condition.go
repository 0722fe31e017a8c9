// Package condition converts between conditional block fields and their
// textual expression form, e.g. `age >= 18`.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Condition is a single comparison between a variable and a literal.
// Operator uses the block symbols: >, >=, <, <=, =.
type Condition struct {
	Variable string
	Operator string
	Value    any
}

var fromExpr = map[string]string{
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
	"==": "=",
}

// Parse reads `variable op literal`.
func Parse(src string) (Condition, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Condition{}, fmt.Errorf("condition is empty")
	}
	if err := Validate(src); err != nil {
		return Condition{}, err
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return Condition{}, fmt.Errorf("failed to parse condition %q: %w", src, err)
	}

	bin, ok := tree.Node.(*ast.BinaryNode)
	if !ok {
		return Condition{}, fmt.Errorf("condition %q must be a single comparison", src)
	}
	op, ok := fromExpr[bin.Operator]
	if !ok {
		return Condition{}, fmt.Errorf("unsupported operator %q in %q", bin.Operator, src)
	}
	ident, ok := bin.Left.(*ast.IdentifierNode)
	if !ok {
		return Condition{}, fmt.Errorf("left side of %q must be a variable name", src)
	}
	value, err := literal(bin.Right)
	if err != nil {
		return Condition{}, fmt.Errorf("right side of %q: %w", src, err)
	}

	return Condition{Variable: ident.Value, Operator: op, Value: value}, nil
}

// IsVariable reports whether name can stand on the left of a condition
// and be read back by Parse unchanged.
func IsVariable(name string) bool {
	if name == "" || name != strings.TrimSpace(name) || Validate(name) != nil {
		return false
	}
	tree, err := parser.Parse(name)
	if err != nil {
		return false
	}
	ident, ok := tree.Node.(*ast.IdentifierNode)
	return ok && ident.Value == name
}

// ParseLiteral reads a scalar literal: true/false, a number, or a quoted
// string. A bare word is taken as a string.
func ParseLiteral(src string) (any, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("literal is empty")
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse literal %q: %w", src, err)
	}
	if ident, ok := tree.Node.(*ast.IdentifierNode); ok {
		return ident.Value, nil
	}
	return literal(tree.Node)
}

func literal(n ast.Node) (any, error) {
	switch v := n.(type) {
	case *ast.IntegerNode:
		return float64(v.Value), nil
	case *ast.FloatNode:
		return v.Value, nil
	case *ast.StringNode:
		return v.Value, nil
	case *ast.BoolNode:
		return v.Value, nil
	case *ast.UnaryNode:
		if v.Operator == "-" {
			inner, err := literal(v.Node)
			if err != nil {
				return nil, err
			}
			if f, ok := inner.(float64); ok {
				return -f, nil
			}
		}
		return nil, fmt.Errorf("unsupported unary %q", v.Operator)
	}
	return nil, fmt.Errorf("expected a number, string or boolean literal (got %T)", n)
}

// Format renders c as an expression; "=" is written as "==".
func Format(c Condition) string {
	op := c.Operator
	if op == "=" {
		op = "=="
	}
	return fmt.Sprintf("%s %s %s", c.Variable, op, Literal(c.Value))
}

// Literal renders a scalar so that ParseLiteral reads it back.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(x) + "'"
	default:
		return fmt.Sprint(x)
	}
}
