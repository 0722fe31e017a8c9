package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/awmpietro/policy-blocks/internal/config"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion is called from main with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs policyctl.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree. Configuration is resolved once per
// invocation (defaults, then --config file, then POLICY_* env) and carried
// in the command context together with the logger.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "policyctl",
		Short:        "policyctl builds, validates and stores policy block graphs",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			level := parseLevel(rt.LogLevel)
			if verbose {
				level = charmlog.DebugLevel
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = withLogger(ctx, newLogger(cmd.ErrOrStderr(), level))
			ctx = withRuntime(ctx, rt)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("policyctl %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newDemoCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newBenchCmd())

	return root
}
