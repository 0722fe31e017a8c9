package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// Policy is a named decision graph. It owns its blocks; their order is the
// order they were added in.
type Policy struct {
	Name string

	blocks []*Block
	start  *Block
	index  map[uuid.UUID]*Block
}

func New(name string) *Policy {
	return &Policy{
		Name:  name,
		index: map[uuid.UUID]*Block{},
	}
}

// AddBlock appends b to the policy. A start block becomes the entry block;
// adding a second one fails and leaves the policy unchanged.
func (p *Policy) AddBlock(b *Block) error {
	if b == nil {
		return fmt.Errorf("%w: nil block", ErrInvalidBlockSpec)
	}
	if b.owner != nil {
		return fmt.Errorf("%w: block %s", ErrBlockOwned, b.ID)
	}
	if _, dup := p.index[b.ID]; dup {
		return fmt.Errorf("%w: duplicate block id %s", ErrInvalidBlockSpec, b.ID)
	}

	if b.Kind == KindStart {
		if p.start != nil {
			return fmt.Errorf("%w: block %s (entry is %s)", ErrDuplicateStartBlock, b.ID, p.start.ID)
		}
		p.start = b
	}

	if p.index == nil {
		p.index = map[uuid.UUID]*Block{}
	}
	b.owner = p
	p.index[b.ID] = b
	p.blocks = append(p.blocks, b)
	return nil
}

// MustAddBlocks adds every block and panics on the first error. Intended for
// fixtures and examples.
func (p *Policy) MustAddBlocks(blocks ...*Block) *Policy {
	for _, b := range blocks {
		if err := p.AddBlock(b); err != nil {
			panic(err)
		}
	}
	return p
}

// Start returns the entry block, or nil when none was added.
func (p *Policy) Start() *Block { return p.start }

// Blocks returns the blocks in insertion order.
func (p *Policy) Blocks() []*Block {
	out := make([]*Block, len(p.blocks))
	copy(out, p.blocks)
	return out
}

func (p *Policy) Len() int { return len(p.blocks) }

// Block looks a block up by identifier.
func (p *Policy) Block(id uuid.UUID) *Block { return p.index[id] }

// Owns reports whether b was added to this policy.
func (p *Policy) Owns(b *Block) bool { return b != nil && b.owner == p }
