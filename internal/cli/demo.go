package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Store the ExamplePolicy, reload it and check its links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			svc, closeFn, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := examplePolicy()
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return err
			}
			if err := svc.Save(ctx, p); err != nil {
				return err
			}
			printSuccess(out, "saved %s (%d blocks)", p.Name, p.Len())

			loaded, err := svc.Load(ctx, p.Name)
			if err != nil {
				return err
			}
			blocks := loaded.Blocks()
			if loaded.Start() == nil || len(blocks) < 2 || loaded.Start().Next != blocks[1] {
				return fmt.Errorf("reloaded %s: start block is not linked to the first conditional", p.Name)
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			printSuccess(out, "reloaded %s, start links %s", loaded.Name, blocks[1].Condition())
			return nil
		},
	}
}

// examplePolicy is the two-level salary policy:
// age >= 18 ? (salary > 10000 ? 1000 : 0) : 0.
func examplePolicy() (*policy.Policy, error) {
	start := policy.NewStart()
	adult, err := policy.NewConditional(policy.OpGreaterEqual, "age", 18)
	if err != nil {
		return nil, err
	}
	salary, err := policy.NewConditional(policy.OpGreater, "salary", 10000)
	if err != nil {
		return nil, err
	}
	high, err := policy.NewEnd(1000)
	if err != nil {
		return nil, err
	}
	low, err := policy.NewEnd(0)
	if err != nil {
		return nil, err
	}
	minor, err := policy.NewEnd(0)
	if err != nil {
		return nil, err
	}

	start.Next = adult
	adult.NextTrue = salary
	salary.NextTrue = high
	salary.NextFalse = low
	adult.NextFalse = minor

	p := policy.New("ExamplePolicy")
	for _, b := range []*policy.Block{start, adult, salary, high, low, minor} {
		if err := p.AddBlock(b); err != nil {
			return nil, err
		}
	}
	return p, nil
}
