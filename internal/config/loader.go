package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment variable overrides.
	EnvPrefix = "MENTIONLENS"

	// AppName is the binary and config directory name.
	AppName = "mentionlens"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers default configuration values on the shared viper
// instance. Called once from command initialization, before Load.
func SetDefaults() {
	viper.SetDefault("search.base_url", "https://analytics.dugganusa.com/api/v1/search")
	viper.SetDefault("search.index", "epstein_files")
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("search.initial_delay", "250ms")
	viper.SetDefault("search.max_attempts", 0)
	viper.SetDefault("search.max_delay", "0s")
	viper.SetDefault("search.relax_backoff", false)

	viper.SetDefault("report.document_base_url", "https://www.justice.gov/epstein/files/")
	viper.SetDefault("report.logo_path", "")
	viper.SetDefault("report.top_mentions", 20)

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.bearer_token", "")
	viper.SetDefault("server.allowed_origins", []string{})
	viper.SetDefault("server.max_upload_bytes", int64(32<<20))

	viper.SetDefault("logging.level", "info")
}

// Load decodes the merged viper state into a typed Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects configurations that cannot be served safely.
func (c *Config) Validate() error {
	if c.Search.Timeout < 0 {
		return fmt.Errorf("search.timeout must not be negative")
	}
	if c.Search.InitialDelay < 0 {
		return fmt.Errorf("search.initial_delay must not be negative")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return fmt.Errorf("wildcard origin '*' is not allowed in server.allowed_origins")
		}
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe).
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// Default returns the built-in configuration, independent of viper state.
// Used by `config init` to emit a starting config file.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:      "https://analytics.dugganusa.com/api/v1/search",
			Index:        "epstein_files",
			Timeout:      30 * time.Second,
			InitialDelay: 250 * time.Millisecond,
		},
		Report: ReportConfig{
			DocumentBaseURL: "https://www.justice.gov/epstein/files/",
			TopMentions:     20,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
