package config

import (
	"context"
	"time"
)

// Config is the complete focusmcp configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Automation AutomationConfig `koanf:"automation" validate:"required"`
	Batch      BatchConfig      `koanf:"batch"      validate:"required"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// ServerConfig controls the MCP transport.
type ServerConfig struct {
	Name            string        `koanf:"name"             validate:"required"              env:"FOCUSMCP_SERVER_NAME"`
	Transport       string        `koanf:"transport"        validate:"oneof=stdio http"      env:"FOCUSMCP_TRANSPORT"`
	Host            string        `koanf:"host"             validate:"required"              env:"FOCUSMCP_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535"       env:"FOCUSMCP_PORT"`
	Path            string        `koanf:"path"             validate:"required,startswith=/" env:"FOCUSMCP_PATH"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"                 env:"FOCUSMCP_SHUTDOWN_TIMEOUT"`
	RateLimit       int           `koanf:"rate_limit"       validate:"min=0"                 env:"FOCUSMCP_RATE_LIMIT"`
}

// AutomationConfig controls how generated scripts are executed.
type AutomationConfig struct {
	Command        string        `koanf:"command"          validate:"required" env:"FOCUSMCP_AUTOMATION_COMMAND"`
	Timeout        time.Duration `koanf:"timeout"          validate:"min=0"    env:"FOCUSMCP_AUTOMATION_TIMEOUT"`
	MaxOutputBytes int           `koanf:"max_output_bytes" validate:"min=1024" env:"FOCUSMCP_AUTOMATION_MAX_OUTPUT_BYTES"`
	MaxRetries     int           `koanf:"max_retries"      validate:"min=0"    env:"FOCUSMCP_AUTOMATION_MAX_RETRIES"`
	RetryBase      time.Duration `koanf:"retry_base"       validate:"min=0"    env:"FOCUSMCP_AUTOMATION_RETRY_BASE"`
	MinAppVersion  string        `koanf:"min_app_version"                      env:"FOCUSMCP_MIN_APP_VERSION"`
}

// BatchConfig controls the batch item creation engine.
type BatchConfig struct {
	ItemTimeout time.Duration `koanf:"item_timeout" validate:"min=0" env:"FOCUSMCP_BATCH_ITEM_TIMEOUT"`
	MaxItems    int           `koanf:"max_items"    validate:"min=1" env:"FOCUSMCP_BATCH_MAX_ITEMS"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"FOCUSMCP_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"FOCUSMCP_LOG_LEVEL"`
	LogJSON     bool   `koanf:"log_json"                                                    env:"FOCUSMCP_LOG_JSON"`
}

// MonitoringConfig exposes Prometheus metrics on the HTTP transport.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"FOCUSMCP_MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"FOCUSMCP_MONITORING_PATH"    validate:"omitempty,startswith=/"`
}

// Service defines the configuration management service interface.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	// GetSource reports which source provided a key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Watch(ctx context.Context, callback func()) error
	Type() SourceType
	Close() error
}

type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "focusmcp",
			Transport:       "stdio",
			Host:            "127.0.0.1",
			Port:            6060,
			Path:            "/mcp",
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300,
		},
		Automation: AutomationConfig{
			Command:        "osascript -l JavaScript",
			Timeout:        30 * time.Second,
			MaxOutputBytes: 1 << 20,
			MaxRetries:     2,
			RetryBase:      250 * time.Millisecond,
			MinAppVersion:  ">= 3.0.0",
		},
		Batch: BatchConfig{
			ItemTimeout: 60 * time.Second,
			MaxItems:    500,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}

// Load loads defaults and environment overrides.
func Load(ctx context.Context) (*Config, error) {
	return NewService().Load(ctx)
}
