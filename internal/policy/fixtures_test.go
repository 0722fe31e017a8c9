package policy

import "testing"

// mustBlock unwraps a constructor result in fixtures; constructor errors
// are bugs in the test itself.
func mustBlock(b *Block, err error) *Block {
	if err != nil {
		panic(err)
	}
	return b
}

type ageCheckBlocks struct {
	start, cond, yes, no *Block
}

// ageCheck builds start -> (age >= 18) -> {true: end(1), false: end(0)}.
func ageCheck(t *testing.T) (*Policy, ageCheckBlocks) {
	t.Helper()

	b := ageCheckBlocks{
		start: NewStart(),
		cond:  mustBlock(NewConditional(OpGreaterEqual, "age", 18)),
		yes:   mustBlock(NewEnd(1)),
		no:    mustBlock(NewEnd(0)),
	}
	b.start.Next = b.cond
	b.cond.NextTrue = b.yes
	b.cond.NextFalse = b.no

	p := New("Age Check")
	for _, blk := range []*Block{b.start, b.cond, b.yes, b.no} {
		if err := p.AddBlock(blk); err != nil {
			t.Fatal(err)
		}
	}
	return p, b
}

// examplePolicy mirrors the nested salary example: two conditionals, three ends.
func examplePolicy(t *testing.T) *Policy {
	t.Helper()

	start := NewStart()
	adult := mustBlock(NewConditional(OpGreaterEqual, "age", 18))
	salary := mustBlock(NewConditional(OpGreater, "salary", 10000))
	high := mustBlock(NewEnd(1000))
	low := mustBlock(NewEnd(0))
	minor := mustBlock(NewEnd(0))

	start.Next = adult
	adult.NextTrue = salary
	salary.NextTrue = high
	salary.NextFalse = low
	adult.NextFalse = minor

	return New("ExamplePolicy").MustAddBlocks(start, adult, salary, high, low, minor)
}
