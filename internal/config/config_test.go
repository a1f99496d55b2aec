package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  http_transport: true
polygon:
  api_key: secret
  timeout_seconds: 45
  max_retries: 4
  backoff_initial_ms: 100
  backoff_max_ms: 500
  requests_per_sec: 5
  burst: 2
tickers:
  backend: file
  data_dir: /tmp/ticker_db
  search_results: 5
logging:
  development: true
  level: debug
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || !cfg.Server.HTTPTransport {
		t.Fatalf("expected server overrides to apply: %+v", cfg.Server)
	}
	if cfg.Polygon.APIKey != "secret" || cfg.Polygon.RequestsPerSec != 5 {
		t.Fatalf("expected polygon overrides to apply: %+v", cfg.Polygon)
	}
	if cfg.Tickers.SearchResults != 5 || cfg.Tickers.DataDir != "/tmp/ticker_db" {
		t.Fatalf("expected tickers overrides to apply: %+v", cfg.Tickers)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging overrides to apply: %+v", cfg.Logging)
	}
	if got := cfg.Timeout(); got != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %v", got)
	}
	if got := cfg.BackoffInitial(); got != 100*time.Millisecond {
		t.Fatalf("expected 100ms initial backoff, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Fatalf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Server.HTTPTransport {
		t.Fatal("expected stdio transport by default")
	}
	if cfg.Polygon.BaseURL != "https://api.polygon.io" {
		t.Fatalf("unexpected base URL %q", cfg.Polygon.BaseURL)
	}
	if cfg.Tickers.Backend != BackendFile {
		t.Fatalf("expected file backend default, got %q", cfg.Tickers.Backend)
	}
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "env-key")
	t.Setenv("MCP_HTTP_TRANSPORT", "true")
	t.Setenv("PORT", "9001")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Polygon.APIKey != "env-key" {
		t.Fatalf("expected POLYGON_API_KEY to bind, got %q", cfg.Polygon.APIKey)
	}
	if !cfg.Server.HTTPTransport {
		t.Fatal("expected MCP_HTTP_TRANSPORT=true to enable HTTP transport")
	}
	if cfg.Server.Port != 9001 {
		t.Fatalf("expected PORT to bind, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected LOG_LEVEL to bind, got %q", cfg.Logging.Level)
	}
}

func TestLoadPostgresBackendFromEnvironment(t *testing.T) {
	t.Setenv("MCP_POLYGON_TICKERS_BACKEND", "postgres")
	t.Setenv("MCP_POLYGON_TICKERS_DB_DSN", "postgres://mcp@localhost:5432/tickers")
	t.Setenv("MCP_POLYGON_TICKERS_DB_MIN_CONNS", "2")
	t.Setenv("MCP_POLYGON_TICKERS_DB_MAX_CONNS", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tickers.Backend != BackendPostgres {
		t.Fatalf("expected postgres backend, got %q", cfg.Tickers.Backend)
	}
	if cfg.Tickers.DB.DSN != "postgres://mcp@localhost:5432/tickers" {
		t.Fatalf("expected DSN to bind, got %q", cfg.Tickers.DB.DSN)
	}
	if cfg.Tickers.DB.MinConns != 2 || cfg.Tickers.DB.MaxConns != 8 {
		t.Fatalf("expected pool sizes to bind, got min=%d max=%d", cfg.Tickers.DB.MinConns, cfg.Tickers.DB.MaxConns)
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	err = cfg.RequireAPIKey()
	if err == nil {
		t.Fatal("expected missing API key error")
	}
	if !strings.Contains(err.Error(), "POLYGON_API_KEY") {
		t.Fatalf("diagnostic should name the variable, got %q", err.Error())
	}

	cfg.Polygon.APIKey = "  "
	if err := cfg.RequireAPIKey(); err == nil {
		t.Fatal("expected whitespace-only API key to be rejected")
	}

	cfg.Polygon.APIKey = "k"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Fatalf("RequireAPIKey() error = %v", err)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Tickers.Backend = "chroma"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown backend error")
	}

	cfg.Tickers.Backend = BackendPostgres
	cfg.Tickers.DB.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing DSN error for postgres backend")
	}
}
