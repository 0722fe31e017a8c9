package policy

import "errors"

var (
	// ErrInvalidBlockSpec is returned when a block is constructed without the
	// fields its kind requires.
	ErrInvalidBlockSpec = errors.New("invalid block spec")

	// ErrMalformedBlock is returned when a serialized block record cannot be
	// decoded. It aborts the whole document.
	ErrMalformedBlock = errors.New("malformed block")

	ErrDuplicateStartBlock = errors.New("there can only be one start block")

	// ErrBlockOwned is returned when a block already added to a policy is
	// added again, to the same or another policy.
	ErrBlockOwned = errors.New("block already belongs to a policy")

	ErrMissingStartBlock             = errors.New("policy must contain a start block")
	ErrEndBlockHasOutgoingLinks      = errors.New("end blocks cannot have any outgoing block links")
	ErrIncompleteConditionalBranches = errors.New("conditional blocks must have both true and false paths")

	ErrMalformedDocument = errors.New("malformed policy document")

	// ErrPersistence wraps failures reported by the document store.
	ErrPersistence = errors.New("persistence failure")
)
