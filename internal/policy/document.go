package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// Document is the serialized form of a policy.
type Document struct {
	Name   string   `json:"name" yaml:"name"`
	Blocks []Record `json:"blocks" yaml:"blocks"`
}

// Document serializes the current state of the policy.
func (p *Policy) Document() Document {
	records := make([]Record, 0, len(p.blocks))
	for _, b := range p.blocks {
		records = append(records, b.Record())
	}
	return Document{Name: p.Name, Blocks: records}
}

type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	strictRefs bool
}

// StrictReferences makes FromDocument reject references to identifiers that
// are not present in the document instead of leaving the slot empty.
func StrictReferences() DecodeOption {
	return func(o *decodeOptions) { o.strictRefs = true }
}

// FromDocument rebuilds a policy. Every record is decoded first; a single
// malformed record aborts the load. Raw identifier references are then
// resolved against the full block set. References with no matching block
// are dropped unless StrictReferences is given. Blocks are added in
// document order, so a document with two start records fails with
// ErrDuplicateStartBlock instead of keeping the first one.
func FromDocument(doc Document, opts ...DecodeOption) (*Policy, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	blocks := make([]*Block, 0, len(doc.Blocks))
	lookup := make(map[uuid.UUID]*Block, len(doc.Blocks))

	for i, rec := range doc.Blocks {
		b, err := DecodeBlock(rec)
		if err != nil {
			return nil, fmt.Errorf("policy %q: record %d: %w", doc.Name, i, err)
		}
		if _, dup := lookup[b.ID]; dup {
			return nil, fmt.Errorf("policy %q: record %d: %w: duplicate block id %s", doc.Name, i, ErrMalformedBlock, b.ID)
		}
		lookup[b.ID] = b
		blocks = append(blocks, b)
	}

	for _, b := range blocks {
		if err := b.resolve(lookup, o.strictRefs); err != nil {
			return nil, fmt.Errorf("policy %q: %w", doc.Name, err)
		}
	}

	p := New(doc.Name)
	for _, b := range blocks {
		if err := p.AddBlock(b); err != nil {
			return nil, fmt.Errorf("policy %q: %w", doc.Name, err)
		}
	}
	return p, nil
}

func (b *Block) resolve(lookup map[uuid.UUID]*Block, strict bool) error {
	var err error
	if b.Next, err = lookupRef(lookup, b.pending.Next, strict); err != nil {
		return fmt.Errorf("block %s next_block: %w", b.ID, err)
	}
	if b.NextTrue, err = lookupRef(lookup, b.pending.NextTrue, strict); err != nil {
		return fmt.Errorf("block %s next_true: %w", b.ID, err)
	}
	if b.NextFalse, err = lookupRef(lookup, b.pending.NextFalse, strict); err != nil {
		return fmt.Errorf("block %s next_false: %w", b.ID, err)
	}
	b.pending = Refs{}
	return nil
}

func lookupRef(lookup map[uuid.UUID]*Block, raw string, strict bool) (*Block, error) {
	if raw == "" {
		return nil, nil
	}
	if id, err := uuid.Parse(raw); err == nil {
		if target, ok := lookup[id]; ok {
			return target, nil
		}
	}
	if strict {
		return nil, fmt.Errorf("%w: dangling reference %q", ErrMalformedBlock, raw)
	}
	return nil, nil
}
