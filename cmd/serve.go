package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/mcp-polygon/internal/api"
	"github.com/marketdesk/mcp-polygon/internal/clock/system"
	"github.com/marketdesk/mcp-polygon/internal/config"
	"github.com/marketdesk/mcp-polygon/internal/logging"
	"github.com/marketdesk/mcp-polygon/internal/mcpserver"
	"github.com/marketdesk/mcp-polygon/internal/polygon"
	"github.com/marketdesk/mcp-polygon/internal/tickers"
)

const shutdownGrace = 10 * time.Second

// newServeCmd creates the 'serve' subcommand, which runs the MCP server
// until interrupted.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the MCP server",
		Long: `Starts the Polygon MCP server. With server.http_transport enabled
(MCP_HTTP_TRANSPORT=true) it listens for streamable HTTP on the
configured port and exposes /health and /metrics; otherwise it serves
the stdio transport for a locally attached client.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	// The API key check happens before any listener starts so a
	// misconfigured container fails its deploy, not its first request.
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, closeStore, err := buildTickerIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := polygon.New(polygon.Config{
		APIKey:         cfg.Polygon.APIKey,
		BaseURL:        cfg.Polygon.BaseURL,
		Timeout:        cfg.Timeout(),
		MaxRetries:     cfg.Polygon.MaxRetries,
		BackoffInitial: cfg.BackoffInitial(),
		BackoffMax:     cfg.BackoffMax(),
		RequestsPerSec: cfg.Polygon.RequestsPerSec,
		Burst:          cfg.Polygon.Burst,
	}, system.New(), logger)
	if err != nil {
		return err
	}

	srv := mcpserver.New(client, index, logger, version, cfg.Tickers.SearchResults)

	if cfg.Server.HTTPTransport {
		return serveHTTP(ctx, cfg, srv, logger)
	}

	logger.Info("serving MCP over stdio", zap.String("version", version))
	return srv.ServeStdio(ctx)
}

// buildTickerIndex loads the persisted ticker set into the in-memory
// search index. An empty store is not an error; the search resource
// just returns no matches until 'tickers load' runs.
func buildTickerIndex(ctx context.Context, cfg config.Config, logger *zap.Logger) (*tickers.Index, func(), error) {
	store, err := openTickerStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	entries, err := store.Load(ctx)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("load tickers: %w", err)
	}
	logger.Info("ticker index loaded",
		zap.String("backend", cfg.Tickers.Backend),
		zap.Int("tickers", len(entries)),
	)
	return tickers.NewIndex(entries), store.Close, nil
}

func openTickerStore(ctx context.Context, cfg config.Config) (tickers.Store, error) {
	switch cfg.Tickers.Backend {
	case config.BackendPostgres:
		return tickers.NewPostgresStore(ctx, tickers.PostgresStoreConfig{
			DSN:      cfg.Tickers.DB.DSN,
			MaxConns: cfg.Tickers.DB.MaxConns,
			MinConns: cfg.Tickers.DB.MinConns,
		})
	default:
		return tickers.NewFileStore(cfg.Tickers.DataDir)
	}
}

func serveHTTP(ctx context.Context, cfg config.Config, srv *mcpserver.Server, logger *zap.Logger) error {
	apiServer := api.NewServer(srv.StreamableHTTPHandler(), logger, version)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over streamable HTTP",
			zap.Int("port", cfg.Server.Port),
			zap.String("version", version),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
