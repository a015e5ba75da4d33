// Package commands provides the oasgraph command-line interface.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oasgraph/oasgraph"
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

// NewRootCmd builds the oasgraph root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oasgraph",
		Short: "Validate multi-document OpenAPI descriptions and build their reference graph",
		Long: `oasgraph loads an OpenAPI description spread across files and URLs,
resolves references between documents, validates the description against
the OAS object model, and emits the resulting reference graph.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the oasgraph version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "oasgraph v%s\n", oasgraph.Version())
		},
	}
}

// newLogger maps the repeatable -v flag onto an slog level: warnings
// by default, info at -v, debug at -vv and beyond.
func newLogger(verbosity int) oasgraph.Logger {
	var level slog.Level
	switch {
	case verbosity <= 0:
		level = slog.LevelWarn
	case verbosity == 1:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return oasgraph.NewSlogAdapter(slog.New(handler))
}
