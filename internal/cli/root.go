package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/geofold/dxfgeo/pkg/buildinfo"
)

// Execute runs the dxfgeo CLI and returns an error if any command
// fails. This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (convert,
// inspect, cache), configures logging based on the --verbose flag, and
// executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands
// via loggerFromContext.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI under the given context, so callers can
// wire signal-driven cancellation through every command.
func ExecuteContext(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "dxfgeo",
		Short:        "dxfgeo converts DXF drawings into geo-feature documents",
		Long:         `dxfgeo is a CLI tool for turning CAD drawings in DXF format into structured geographic features, with per-entity geometry conversion, block expansion, and coordinate reprojection.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// printSuccess writes a user-facing success line to stdout.
func printSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// printInfo writes a user-facing status line to stdout.
func printInfo(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// printDetail writes an indented detail line to stdout.
func printDetail(format string, args ...any) {
	fmt.Printf("  "+format+"\n", args...)
}
