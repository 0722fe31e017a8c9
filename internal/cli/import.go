package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a policy from DOT, JSON or YAML and store it",
		Long: `Import reads a policy definition, validates it and stores it under its name.

DOT files describe blocks as nodes: shape=circle for the start block,
shape=diamond with a label like "age >= 18" for conditionals and shape=box
with a literal label for end blocks. Conditional edges carry label=true or
label=false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if format == "" {
				format = formatFromPath(path)
			}

			svc, closeFn, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.Import(ctx, data, format)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			printSuccess(cmd.OutOrStdout(), "imported %s (%d blocks)", p.Name, p.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: dot, json or yaml (default from extension)")
	return cmd
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return "dot"
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
