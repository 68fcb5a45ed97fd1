// Package config provides centralized configuration management: YAML file,
// MENTIONLENS_* environment variables, and flag overrides layered via viper.
package config

import (
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Search  SearchConfig  `mapstructure:"search" yaml:"search"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SearchConfig tunes the rate-adaptive search client.
type SearchConfig struct {
	// BaseURL is the remote full-text search endpoint.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Index selects the document index to query.
	Index string `mapstructure:"index" yaml:"index"`

	// Timeout bounds a single network call.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// InitialDelay is the inter-contact pacing baseline.
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`

	// MaxAttempts caps the 429 retry loop per contact; 0 is unbounded.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`

	// MaxDelay caps the doubling backoff; 0 leaves it uncapped.
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`

	// RelaxBackoff enables the corrected variant where a clean success
	// halves an inflated delay back toward InitialDelay.
	RelaxBackoff bool `mapstructure:"relax_backoff" yaml:"relax_backoff"`
}

// ReportConfig tunes report rendering.
type ReportConfig struct {
	// DocumentBaseURL is the public base for source document links.
	DocumentBaseURL string `mapstructure:"document_base_url" yaml:"document_base_url"`

	// LogoPath points at an optional PNG inlined into the HTML header.
	LogoPath string `mapstructure:"logo_path" yaml:"logo_path"`

	// TopMentions bounds the terminal summary table.
	TopMentions int `mapstructure:"top_mentions" yaml:"top_mentions"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// BearerToken protects the /search and /report endpoints. Required when
	// serving; there is no anonymous mode.
	BearerToken string `mapstructure:"bearer_token" yaml:"bearer_token"`

	// AllowedOrigins is the explicit CORS allowlist. Wildcards are rejected.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// MaxUploadBytes bounds the accepted CSV upload size.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level: trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
}
