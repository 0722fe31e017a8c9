package policy

import (
	"errors"
	"testing"
)

func TestPolicy_AddBlock_SecondStartFails(t *testing.T) {
	p := New("p")
	first := NewStart()
	second := NewStart()

	if err := p.AddBlock(first); err != nil {
		t.Fatal(err)
	}
	err := p.AddBlock(second)
	if !errors.Is(err, ErrDuplicateStartBlock) {
		t.Fatalf("expected ErrDuplicateStartBlock, got %v", err)
	}

	if p.Start() != first {
		t.Fatalf("expected the first start block to remain the entry")
	}
	if p.Len() != 1 {
		t.Fatalf("expected rejected block not to be appended, got %d blocks", p.Len())
	}
	if p.Owns(second) {
		t.Fatalf("rejected block must not be owned by the policy")
	}
}

func TestPolicy_AddBlock_KeepsInsertionOrder(t *testing.T) {
	p := New("order")
	end := mustBlock(NewEnd(true))
	cond := mustBlock(NewConditional(OpLess, "x", 3))
	start := NewStart()

	p.MustAddBlocks(end, cond, start)

	blocks := p.Blocks()
	if blocks[0] != end || blocks[1] != cond || blocks[2] != start {
		t.Fatalf("unexpected order: %v", blocks)
	}
	if p.Start() != start {
		t.Fatalf("expected start block to become the entry regardless of position")
	}
	if p.Block(cond.ID) != cond {
		t.Fatalf("expected lookup by id to return the block")
	}
}

func TestPolicy_AddBlock_Ownership(t *testing.T) {
	b := mustBlock(NewEnd(1))
	p := New("a")
	q := New("b")

	if err := p.AddBlock(b); err != nil {
		t.Fatal(err)
	}
	if err := p.AddBlock(b); !errors.Is(err, ErrBlockOwned) {
		t.Fatalf("expected ErrBlockOwned when adding twice, got %v", err)
	}
	if err := q.AddBlock(b); !errors.Is(err, ErrBlockOwned) {
		t.Fatalf("expected ErrBlockOwned when sharing between policies, got %v", err)
	}
	if p.Len() != 1 || q.Len() != 0 {
		t.Fatalf("unexpected sizes %d %d", p.Len(), q.Len())
	}
}

func TestPolicy_AddBlock_Nil(t *testing.T) {
	if err := New("p").AddBlock(nil); !errors.Is(err, ErrInvalidBlockSpec) {
		t.Fatalf("expected ErrInvalidBlockSpec, got %v", err)
	}
}

func TestPolicy_Blocks_ReturnsCopy(t *testing.T) {
	p, _ := ageCheck(t)
	blocks := p.Blocks()
	blocks[0] = nil
	if p.Blocks()[0] == nil {
		t.Fatalf("mutating the returned slice must not change the policy")
	}
}
