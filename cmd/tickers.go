package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/mcp-polygon/internal/config"
	"github.com/marketdesk/mcp-polygon/internal/logging"
	"github.com/marketdesk/mcp-polygon/internal/tickers"
)

// newTickersCmd groups the ticker index maintenance commands.
func newTickersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickers",
		Short: "Manages the ticker search index",
	}
	cmd.AddCommand(newTickersLoadCmd())
	return cmd
}

// newTickersLoadCmd creates 'tickers load', which replaces the persisted
// ticker set from a CSV of ticker,name rows. It runs without an API key
// so the index can be seeded before the server is deployed.
func newTickersLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <csv-file>",
		Short: "Replaces the ticker index from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			entries, err := tickers.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("parse csv: %w", err)
			}

			store, err := openTickerStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(cmd.Context(), entries); err != nil {
				return fmt.Errorf("save tickers: %w", err)
			}

			logger.Info("ticker index replaced",
				zap.String("backend", cfg.Tickers.Backend),
				zap.Int("tickers", len(entries)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d tickers\n", len(entries))
			return nil
		},
	}
}
