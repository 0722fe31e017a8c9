package policy

import (
	"strings"
	"testing"
)

func TestDOT_RoundTripThroughCompiler(t *testing.T) {
	p := examplePolicy(t)

	dot, err := DOT(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dot, "digraph") {
		t.Fatalf("expected a directed graph, got:\n%s", dot)
	}

	q, err := NewCompiler().Compile(dot)
	if err != nil {
		t.Fatalf("compile exported DOT: %v\n%s", err, dot)
	}
	if q.Name != p.Name || q.Len() != p.Len() {
		t.Fatalf("expected %q with %d blocks, got %q with %d", p.Name, p.Len(), q.Name, q.Len())
	}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}

	adult := q.Start().Next
	if adult.Condition() != "age >= 18" {
		t.Fatalf("unexpected condition %q", adult.Condition())
	}
	if adult.NextTrue.Condition() != "salary > 10000" {
		t.Fatalf("unexpected nested condition %q", adult.NextTrue.Condition())
	}
	if adult.NextTrue.NextTrue.OutputValue != float64(1000) {
		t.Fatalf("unexpected output %v", adult.NextTrue.NextTrue.OutputValue)
	}
}

func TestDOT_StringOutputs(t *testing.T) {
	start := NewStart()
	cond := mustBlock(NewConditional(OpEqual, "segment", "prime"))
	yes := mustBlock(NewEnd("approved"))
	no := mustBlock(NewEnd(false))
	start.Next = cond
	cond.NextTrue = yes
	cond.NextFalse = no
	p := New("Segments").MustAddBlocks(start, cond, yes, no)

	dot, err := DOT(p)
	if err != nil {
		t.Fatal(err)
	}
	q, err := NewCompiler().Compile(dot)
	if err != nil {
		t.Fatalf("compile exported DOT: %v\n%s", err, dot)
	}

	c := q.Start().Next
	if c.Operator != OpEqual || c.Value != "prime" {
		t.Fatalf("unexpected conditional %v", c)
	}
	if c.NextTrue.OutputValue != "approved" || c.NextFalse.OutputValue != false {
		t.Fatalf("unexpected outputs %v / %v", c.NextTrue.OutputValue, c.NextFalse.OutputValue)
	}
}

func TestDOT_RejectsVariablesTheCompilerCannotRead(t *testing.T) {
	for _, variable := range []string{"monthly income", "user.age", "a-b", "true"} {
		start := NewStart()
		cond := mustBlock(NewConditional(OpGreaterEqual, variable, 18))
		yes := mustBlock(NewEnd(1))
		no := mustBlock(NewEnd(0))
		start.Next = cond
		cond.NextTrue = yes
		cond.NextFalse = no
		p := New("Vars").MustAddBlocks(start, cond, yes, no)

		if dot, err := DOT(p); err == nil {
			t.Fatalf("expected DOT to fail for variable %q, got:\n%s", variable, dot)
		}
	}
}
