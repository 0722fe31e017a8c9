package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awmpietro/policy-blocks/internal/policy"
	"github.com/awmpietro/policy-blocks/internal/policydiff"
)

func newDiffCmd() *cobra.Command {
	var (
		unified bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two stored policies block by block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeFn, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			oldP, err := svc.Load(ctx, args[0])
			if err != nil {
				return err
			}
			newP, err := svc.Load(ctx, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if unified {
				a, err := policy.EncodeYAML(oldP.Document())
				if err != nil {
					return err
				}
				b, err := policy.EncodeYAML(newP.Document())
				if err != nil {
					return err
				}
				patch, stats, err := policydiff.Unified(a, b, args[0], args[1], 3)
				if err != nil {
					return err
				}
				fmt.Fprint(out, patch)
				loggerFromContext(ctx).Debug("diff", "added", stats.Added, "removed", stats.Removed)
				return nil
			}

			result := policydiff.Diff(oldP.Document(), newP.Document())
			if asJSON {
				s, err := policydiff.FormatJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
				return nil
			}
			fmt.Fprint(out, policydiff.FormatText(result))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unified, "unified", "u", false, "print a unified diff of the YAML documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured diff as JSON")
	return cmd
}
