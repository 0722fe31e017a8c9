package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/awmpietro/policy-blocks/internal/policy/condition"
)

type BlockKind string

const (
	KindStart       BlockKind = "start"
	KindConditional BlockKind = "conditional"
	KindEnd         BlockKind = "end"
)

func (k BlockKind) Valid() bool {
	switch k {
	case KindStart, KindConditional, KindEnd:
		return true
	}
	return false
}

// Operator is the comparison symbol of a conditional block. It has no
// behaviour here beyond surviving a round trip.
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
)

func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpEqual:
		return true
	}
	return false
}

// BlockSpec carries the kind-specific fields of a new block. Zero values mean
// the field is absent.
type BlockSpec struct {
	Operator       Operator
	TargetVariable string
	Value          any
	OutputValue    any
}

// Block is one node of a policy graph. Next, NextTrue and NextFalse are
// non-owning links to blocks owned by the same Policy.
type Block struct {
	ID             uuid.UUID
	Kind           BlockKind
	Operator       Operator
	TargetVariable string
	Value          any
	OutputValue    any

	Next      *Block // start
	NextTrue  *Block // conditional
	NextFalse *Block // conditional

	owner   *Policy
	pending Refs
}

// Refs holds the raw identifiers of a decoded block's links until the
// owning policy resolves them. Empty strings are unset links.
type Refs struct {
	Next      string
	NextTrue  string
	NextFalse string
}

func (r Refs) IsZero() bool {
	return r.Next == "" && r.NextTrue == "" && r.NextFalse == ""
}

// NewBlock builds a block with a fresh random identifier and no links.
func NewBlock(kind BlockKind, spec BlockSpec) (*Block, error) {
	return buildBlock(uuid.New(), kind, spec)
}

func NewStart() *Block {
	b, _ := NewBlock(KindStart, BlockSpec{})
	return b
}

func NewConditional(op Operator, variable string, value any) (*Block, error) {
	return NewBlock(KindConditional, BlockSpec{Operator: op, TargetVariable: variable, Value: value})
}

func NewEnd(output any) (*Block, error) {
	return NewBlock(KindEnd, BlockSpec{OutputValue: output})
}

func buildBlock(id uuid.UUID, kind BlockKind, spec BlockSpec) (*Block, error) {
	b := &Block{ID: id, Kind: kind}

	switch kind {
	case KindStart:
	case KindConditional:
		if spec.Operator == "" || spec.TargetVariable == "" || spec.Value == nil {
			return nil, fmt.Errorf("%w: conditional block must contain operator, target_variable and value fields", ErrInvalidBlockSpec)
		}
		if !spec.Operator.Valid() {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidBlockSpec, spec.Operator)
		}
		v, err := normalizeScalar(spec.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: value: %v", ErrInvalidBlockSpec, err)
		}
		b.Operator = spec.Operator
		b.TargetVariable = spec.TargetVariable
		b.Value = v
	case KindEnd:
		if spec.OutputValue == nil {
			return nil, fmt.Errorf("%w: end block must return a value", ErrInvalidBlockSpec)
		}
		v, err := normalizeScalar(spec.OutputValue)
		if err != nil {
			return nil, fmt.Errorf("%w: output_value: %v", ErrInvalidBlockSpec, err)
		}
		b.OutputValue = v
	default:
		return nil, fmt.Errorf("%w: unknown block kind %q", ErrInvalidBlockSpec, kind)
	}

	return b, nil
}

// Links returns the set outgoing links in slot order.
func (b *Block) Links() []*Block {
	out := make([]*Block, 0, 2)
	for _, l := range []*Block{b.Next, b.NextTrue, b.NextFalse} {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// PendingRefs reports the raw link identifiers of a block decoded from a
// record that has not been resolved yet.
func (b *Block) PendingRefs() Refs { return b.pending }

// Condition renders a conditional block as an expression, e.g. "age >= 18".
func (b *Block) Condition() string {
	if b.Kind != KindConditional {
		return ""
	}
	return condition.Format(condition.Condition{
		Variable: b.TargetVariable,
		Operator: string(b.Operator),
		Value:    b.Value,
	})
}

func (b *Block) String() string {
	switch b.Kind {
	case KindConditional:
		return fmt.Sprintf("conditional(%s) %s", b.Condition(), b.ID)
	case KindEnd:
		return fmt.Sprintf("end(%s) %s", condition.Literal(b.OutputValue), b.ID)
	default:
		return fmt.Sprintf("%s %s", b.Kind, b.ID)
	}
}

// Record is the serialized shape of a block: links are replaced by the
// identifiers of their targets.
type Record struct {
	ID             string    `json:"id" yaml:"id"`
	Type           BlockKind `json:"type" yaml:"type"`
	Operator       *Operator `json:"operator" yaml:"operator"`
	TargetVariable *string   `json:"target_variable" yaml:"target_variable"`
	Value          any       `json:"value" yaml:"value"`
	OutputValue    any       `json:"output_value" yaml:"output_value"`
	NextBlock      *string   `json:"next_block" yaml:"next_block"`
	NextTrue       *string   `json:"next_true" yaml:"next_true"`
	NextFalse      *string   `json:"next_false" yaml:"next_false"`
}

func (b *Block) Record() Record {
	r := Record{
		ID:        b.ID.String(),
		Type:      b.Kind,
		NextBlock: refID(b.Next),
		NextTrue:  refID(b.NextTrue),
		NextFalse: refID(b.NextFalse),
	}

	switch b.Kind {
	case KindConditional:
		op := b.Operator
		variable := b.TargetVariable
		r.Operator = &op
		r.TargetVariable = &variable
		r.Value = b.Value
	case KindEnd:
		r.OutputValue = b.OutputValue
	}

	return r
}

// DecodeBlock rebuilds a block from its record, keeping its identifier.
// Links are not resolved: their raw identifiers are available through
// PendingRefs until the owning policy resolves them.
func DecodeBlock(r Record) (*Block, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q: %v", ErrMalformedBlock, r.ID, err)
	}
	if !r.Type.Valid() {
		return nil, fmt.Errorf("%w: block %s: unknown block type %q", ErrMalformedBlock, r.ID, r.Type)
	}

	spec := BlockSpec{Value: r.Value, OutputValue: r.OutputValue}
	if r.Operator != nil {
		spec.Operator = *r.Operator
	}
	if r.TargetVariable != nil {
		spec.TargetVariable = *r.TargetVariable
	}

	b, err := buildBlock(id, r.Type, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: block %s: %v", ErrMalformedBlock, r.ID, err)
	}

	b.pending = Refs{
		Next:      deref(r.NextBlock),
		NextTrue:  deref(r.NextTrue),
		NextFalse: deref(r.NextFalse),
	}
	return b, nil
}

func refID(b *Block) *string {
	if b == nil {
		return nil
	}
	s := b.ID.String()
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
