// Package config provides configuration management for the PhD talent service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Chat provider names.
const (
	ChatProviderOpenAI    = "openai"
	ChatProviderAnthropic = "anthropic"
)

// Config holds all configuration for the PhD talent service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Pipeline contains data fetching and default filter settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Chat contains candidate chat settings.
	Chat ChatConfig `mapstructure:"chat"`
	// Importer contains CSV import and snapshot settings.
	Importer ImporterConfig `mapstructure:"importer"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use PHDTALENT_DATABASE_PASSWORD in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 20).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 2).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// PipelineConfig holds data fetching limits and view defaults.
type PipelineConfig struct {
	// PageSize is the number of rows read per query page.
	PageSize int `mapstructure:"page_size"`
	// MaxCandidates caps the candidates read for one browse request.
	MaxCandidates int `mapstructure:"max_candidates"`
	// DefaultYearStart and DefaultYearEnd bound graduation years when a
	// browse request gives none.
	DefaultYearStart int `mapstructure:"default_year_start"`
	DefaultYearEnd   int `mapstructure:"default_year_end"`
	// DefaultComparisonStart and DefaultComparisonEnd bound publication
	// years for comparison views.
	DefaultComparisonStart int `mapstructure:"default_comparison_start"`
	DefaultComparisonEnd   int `mapstructure:"default_comparison_end"`
}

// ChatConfig holds candidate chat configuration.
type ChatConfig struct {
	// Enabled turns the chat endpoint on.
	Enabled bool `mapstructure:"enabled"`
	// Provider is the LLM provider (openai, anthropic).
	Provider string `mapstructure:"provider"`
	// Timeout is the timeout for a single completion request.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens is the completion token limit.
	MaxTokens int `mapstructure:"max_tokens"`
	// RateLimit limits chat requests across all clients.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI ProviderConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// RateLimitConfig holds token bucket settings.
type RateLimitConfig struct {
	// RPS is the sustained requests per second.
	RPS float64 `mapstructure:"rps"`
	// Burst is the bucket size.
	Burst int `mapstructure:"burst"`
}

// ProviderConfig holds settings for one LLM provider.
type ProviderConfig struct {
	// APIKey is loaded from the environment only (see loadSecrets).
	APIKey string `mapstructure:"-"`
	// Model is the model name.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// ImporterConfig holds CSV importer settings.
type ImporterConfig struct {
	// BatchSize is the number of rows upserted per batch.
	BatchSize int `mapstructure:"batch_size"`
	// DataDir is the default directory holding the CSV files.
	DataDir string `mapstructure:"data_dir"`
	// SnapshotPath is the default SQLite snapshot file.
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// ActiveProvider returns the settings of the configured chat provider.
func (c *ChatConfig) ActiveProvider() ProviderConfig {
	if strings.ToLower(c.Provider) == ChatProviderAnthropic {
		return c.Anthropic
	}
	return c.OpenAI
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("PHDTALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/phd-talent")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" and are never read from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// The prefixed variable wins over the provider's conventional one.
func loadSecrets(cfg *Config) {
	cfg.Chat.OpenAI.APIKey = firstEnv("PHDTALENT_CHAT_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.Chat.Anthropic.APIKey = firstEnv("PHDTALENT_CHAT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "phdtalent")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "phd_talent")
	// Use PHDTALENT_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Pipeline defaults
	v.SetDefault("pipeline.page_size", 1000)
	v.SetDefault("pipeline.max_candidates", 2000)
	v.SetDefault("pipeline.default_year_start", 2015)
	v.SetDefault("pipeline.default_year_end", 2025)
	v.SetDefault("pipeline.default_comparison_start", 2019)
	v.SetDefault("pipeline.default_comparison_end", 2024)

	// Chat defaults
	v.SetDefault("chat.enabled", false)
	v.SetDefault("chat.provider", ChatProviderOpenAI)
	v.SetDefault("chat.timeout", "60s")
	v.SetDefault("chat.temperature", 0.8)
	v.SetDefault("chat.max_tokens", 2000)
	v.SetDefault("chat.rate_limit.rps", 2.0)
	v.SetDefault("chat.rate_limit.burst", 5)
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("chat.openai.model", "gpt-4o-mini")
	v.SetDefault("chat.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("chat.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("chat.anthropic.base_url", "https://api.anthropic.com")

	// Importer defaults
	v.SetDefault("importer.batch_size", 5000)
	v.SetDefault("importer.data_dir", "data")
	v.SetDefault("importer.snapshot_path", "phd_talent.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate pipeline config
	if c.Pipeline.PageSize <= 0 {
		return fmt.Errorf("pipeline page_size must be positive")
	}
	if c.Pipeline.MaxCandidates < 0 {
		return fmt.Errorf("pipeline max_candidates must not be negative")
	}
	if c.Pipeline.DefaultYearEnd < c.Pipeline.DefaultYearStart {
		return fmt.Errorf("pipeline default year range is inverted: %d-%d",
			c.Pipeline.DefaultYearStart, c.Pipeline.DefaultYearEnd)
	}
	if c.Pipeline.DefaultComparisonEnd < c.Pipeline.DefaultComparisonStart {
		return fmt.Errorf("pipeline default comparison range is inverted: %d-%d",
			c.Pipeline.DefaultComparisonStart, c.Pipeline.DefaultComparisonEnd)
	}

	if c.Importer.BatchSize <= 0 {
		return fmt.Errorf("importer batch_size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if !c.Chat.Enabled {
		return nil
	}

	// The configured chat provider must have its API key set.
	switch strings.ToLower(c.Chat.Provider) {
	case ChatProviderOpenAI:
		if c.Chat.OpenAI.APIKey == "" {
			return fmt.Errorf("chat provider %q requires OPENAI_API_KEY to be set", c.Chat.Provider)
		}
	case ChatProviderAnthropic:
		if c.Chat.Anthropic.APIKey == "" {
			return fmt.Errorf("chat provider %q requires ANTHROPIC_API_KEY to be set", c.Chat.Provider)
		}
	default:
		return fmt.Errorf("unsupported chat provider: %s", c.Chat.Provider)
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat max_tokens must be positive")
	}
	if c.Chat.RateLimit.RPS < 0 {
		return fmt.Errorf("chat rate_limit rps must not be negative")
	}

	return nil
}
