package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketdesk/mcp-polygon/internal/healthcheck"
)

// newHealthcheckCmd creates the 'healthcheck' subcommand. It is the
// container HEALTHCHECK entry: it probes the local /health endpoint and
// exits non-zero when the server is not responding. It deliberately
// loads no configuration and needs no API key.
func newHealthcheckCmd() *cobra.Command {
	var (
		port    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probes the local server's /health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = portFromEnv(port)
			}
			probe := healthcheck.New(timeout)
			if err := probe.Check(cmd.Context(), fmt.Sprintf("http://localhost:%d", port)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8000, "port the server listens on (defaults to $PORT when set)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "probe timeout")

	return cmd
}

func portFromEnv(fallback int) int {
	raw := os.Getenv("PORT")
	if raw == "" {
		return fallback
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 {
		return fallback
	}
	return port
}
