package app

import (
	"context"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

// PolicyService is the surface the CLI drives.
type PolicyService interface {
	Save(ctx context.Context, p *policy.Policy) error
	Load(ctx context.Context, name string, opts ...policy.DecodeOption) (*policy.Policy, error)
	Validate(ctx context.Context, name string, opts ...policy.DecodeOption) (*Report, error)
	Import(ctx context.Context, data []byte, format string) (*policy.Policy, error)
	Export(ctx context.Context, name, format string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// Report is the outcome of validating a stored policy. Err is the
// structural validation error, Issues the non-fatal lint findings.
type Report struct {
	Policy *policy.Policy
	Err    error
	Issues []policy.Issue
}

func (r *Report) OK() bool { return r != nil && r.Err == nil }

var _ PolicyService = (*Service)(nil)
