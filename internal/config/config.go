// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Polygon PolygonConfig `mapstructure:"polygon"`
	Tickers TickersConfig `mapstructure:"tickers"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls transport selection and the HTTP listener.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	HTTPTransport bool `mapstructure:"http_transport"`
}

// PolygonConfig governs the Polygon.io API client.
type PolygonConfig struct {
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	RequestsPerSec   float64 `mapstructure:"requests_per_sec"`
	Burst            int     `mapstructure:"burst"`
}

// TickersConfig selects and tunes the ticker search index backend.
type TickersConfig struct {
	Backend       string   `mapstructure:"backend"`
	DataDir       string   `mapstructure:"data_dir"`
	SearchResults int      `mapstructure:"search_results"`
	DB            DBConfig `mapstructure:"db"`
}

// DBConfig controls the Postgres ticker store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Backend names accepted by tickers.backend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MCP_POLYGON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.http_transport", false)
	v.SetDefault("polygon.base_url", "https://api.polygon.io")
	v.SetDefault("polygon.timeout_seconds", 20)
	v.SetDefault("polygon.max_retries", 2)
	v.SetDefault("polygon.backoff_initial_ms", 250)
	v.SetDefault("polygon.backoff_max_ms", 2000)
	v.SetDefault("polygon.requests_per_sec", 0)
	v.SetDefault("polygon.burst", 1)
	v.SetDefault("tickers.backend", BackendFile)
	v.SetDefault("tickers.data_dir", "ticker_db")
	v.SetDefault("tickers.search_results", 3)
	// Viper only unmarshals keys it has seen; register every db key so
	// the env forms (MCP_POLYGON_TICKERS_DB_DSN etc.) are picked up.
	v.SetDefault("tickers.db.dsn", "")
	v.SetDefault("tickers.db.max_conns", 4)
	v.SetDefault("tickers.db.min_conns", 0)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
}

// bindLegacyEnv wires the flat variable names the container contract fixes
// (POLYGON_API_KEY, MCP_HTTP_TRANSPORT, PORT, DEBUG, LOG_LEVEL) to their
// structured keys. The prefixed forms still win when both are set.
func bindLegacyEnv(v *viper.Viper) {
	// BindEnv never fails with a non-empty key list.
	_ = v.BindEnv("polygon.api_key", "MCP_POLYGON_POLYGON_API_KEY", "POLYGON_API_KEY")
	_ = v.BindEnv("server.http_transport", "MCP_POLYGON_SERVER_HTTP_TRANSPORT", "MCP_HTTP_TRANSPORT")
	_ = v.BindEnv("server.port", "MCP_POLYGON_SERVER_PORT", "PORT")
	_ = v.BindEnv("logging.development", "MCP_POLYGON_LOGGING_DEVELOPMENT", "DEBUG")
	_ = v.BindEnv("logging.level", "MCP_POLYGON_LOGGING_LEVEL", "LOG_LEVEL")
}

// Validate enforces required values and reasonable limits. The API key is
// checked separately via RequireAPIKey so commands that never call
// Polygon (e.g. loading the ticker index) can run without one.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Polygon.TimeoutSeconds <= 0 {
		return fmt.Errorf("polygon.timeout_seconds must be > 0")
	}
	if c.Polygon.BaseURL == "" {
		return fmt.Errorf("polygon.base_url must be set")
	}
	switch c.Tickers.Backend {
	case BackendFile:
		if c.Tickers.DataDir == "" {
			return fmt.Errorf("tickers.data_dir must be set for the file backend")
		}
	case BackendPostgres:
		if c.Tickers.DB.DSN == "" {
			return fmt.Errorf("tickers.db.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown tickers backend %q", c.Tickers.Backend)
	}
	if c.Tickers.SearchResults <= 0 {
		return fmt.Errorf("tickers.search_results must be > 0")
	}
	return nil
}

// RequireAPIKey is the fatal startup check for serving traffic: the key
// must be present and non-empty before the server process starts.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Polygon.APIKey) == "" {
		return fmt.Errorf("POLYGON_API_KEY environment variable is not set")
	}
	return nil
}

// Timeout converts the configured HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Polygon.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the initial retry backoff.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.Polygon.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry backoff ceiling.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Polygon.BackoffMaxMs) * time.Millisecond
}
