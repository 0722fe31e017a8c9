package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored policy's blocks and links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			svc, closeFn, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.Load(ctx, args[0])
			if err != nil {
				return err
			}

			printTitle(out, "%s", p.Name)
			printKeyValue(out, "blocks", fmt.Sprint(p.Len()))
			if s := p.Start(); s != nil {
				printKeyValue(out, "start", s.ID.String())
			}
			for _, b := range p.Blocks() {
				printInfo(out, "%s", b)
				for _, link := range describeLinks(b) {
					printDetail(out, "%s", link)
				}
			}
			return nil
		},
	}
}

func describeLinks(b *policy.Block) []string {
	var lines []string
	add := func(label string, target *policy.Block) {
		if target != nil {
			lines = append(lines, strings.Join([]string{label, iconArrow, target.ID.String()}, " "))
		}
	}
	add("next", b.Next)
	add("true", b.NextTrue)
	add("false", b.NextFalse)
	return lines
}
