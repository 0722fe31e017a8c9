package policy

import "fmt"

// Validate checks the structural rules every stored policy must satisfy and
// reports the first violation in block order.
//
// A start block without a next link is accepted.
func (p *Policy) Validate() error {
	if p.start == nil {
		return ErrMissingStartBlock
	}

	for _, b := range p.blocks {
		switch b.Kind {
		case KindEnd:
			if b.Next != nil || b.NextTrue != nil || b.NextFalse != nil {
				return fmt.Errorf("%w: block %s", ErrEndBlockHasOutgoingLinks, b.ID)
			}
		case KindConditional:
			if b.NextTrue == nil || b.NextFalse == nil {
				return fmt.Errorf("%w: block %s (%s)", ErrIncompleteConditionalBranches, b.ID, b.Condition())
			}
		}
	}

	return nil
}
