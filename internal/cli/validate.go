package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

var errInvalidPolicy = errors.New("policy is invalid")

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Check a stored policy's structure",
		Long: `Validate loads a stored policy and checks its structural rules.

Lint findings (unreachable blocks, cycles) are printed as warnings. With
--strict, references to unknown blocks fail the load and lint findings fail
the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			svc, closeFn, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			var opts []policy.DecodeOption
			if strict {
				opts = append(opts, policy.StrictReferences())
			}

			r, err := svc.Validate(ctx, args[0], opts...)
			if err != nil {
				return err
			}

			for _, issue := range r.Issues {
				printWarning(out, "%s", issue)
			}
			if !r.OK() {
				printError(out, "%s: %v", args[0], r.Err)
				return errInvalidPolicy
			}
			if strict && len(r.Issues) > 0 {
				printError(out, "%s: %d lint issue(s)", args[0], len(r.Issues))
				return errInvalidPolicy
			}
			printSuccess(out, "%s is valid", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat dangling references and lint issues as errors")
	return cmd
}
