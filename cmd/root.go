// Package cmd defines and implements the CLI commands for the mcp-polygon
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// version is stamped at build time via -ldflags.
var version = "0.0.0-dev"

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-polygon",
		Short: "An MCP server exposing Polygon.io market data tools.",
		Long: `mcp-polygon serves Model Context Protocol tools backed by the
Polygon.io REST API: price aggregates, trades, quotes, snapshots,
reference data, and a ticker similarity search resource. It speaks
stdio for local clients and streamable HTTP for containerized
deployments.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; environment variables suffice)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthcheckCmd())
	cmd.AddCommand(newTickersCmd())
	cmd.AddCommand(newReleaseCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
