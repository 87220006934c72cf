// Package config provides configuration structures and loading logic for the
// generation service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deadweight/argon/pkg/domain"
)

// Config holds the global configuration for the service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Assets    AssetsConfig    `yaml:"assets"`
	Engine    EngineConfig    `yaml:"engine"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address      string `yaml:"address"`
	AdminAddress string `yaml:"admin_address"`
}

// Duration wraps time.Duration so YAML values like "500ms" parse.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ExecutorConfig holds configuration for the execution engine connection.
type ExecutorConfig struct {
	BaseURL        string   `yaml:"base_url"`
	InputDir       string   `yaml:"input_dir"`
	PollInterval   Duration `yaml:"poll_interval"`
	StartupTimeout Duration `yaml:"startup_timeout"`
}

// AssetsConfig holds configuration for the adapter registry.
type AssetsConfig struct {
	Dir          string `yaml:"dir"`
	CatalogToken string `yaml:"catalog_token"`
	MaxRetries   uint64 `yaml:"max_retries"`
}

// EngineConfig holds configuration for the orchestration engine.
type EngineConfig struct {
	Workers        int    `yaml:"workers"`
	Checkpoint     string `yaml:"checkpoint"`
	ControlNet     string `yaml:"controlnet"`
	NegativePrompt string `yaml:"negative_prompt"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	Environment  string `yaml:"environment"`
}

// RateLimitConfig holds configuration for the generation endpoint limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads configuration from a file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		//nolint:gosec // Config file path is controlled by admin/operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":7860",
			AdminAddress: ":19090",
		},
		Executor: ExecutorConfig{
			BaseURL:        "http://127.0.0.1:8188",
			InputDir:       "input",
			PollInterval:   Duration(time.Second),
			StartupTimeout: Duration(2 * time.Minute),
		},
		Assets: AssetsConfig{
			Dir:        "models/loras",
			MaxRetries: 3,
		},
		Engine: EngineConfig{
			Workers: 2,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("ARGON_ADDR"); val != "" {
		cfg.Server.Address = val
	}
	if val := os.Getenv("ARGON_ADMIN_ADDR"); val != "" {
		cfg.Server.AdminAddress = val
	}

	if val := os.Getenv("ARGON_EXECUTOR_URL"); val != "" {
		cfg.Executor.BaseURL = val
	}
	if val := os.Getenv("ARGON_EXECUTOR_INPUT_DIR"); val != "" {
		cfg.Executor.InputDir = val
	}

	if val := os.Getenv("ARGON_ASSETS_DIR"); val != "" {
		cfg.Assets.Dir = val
	}
	if val := os.Getenv("ARGON_CATALOG_TOKEN"); val != "" {
		cfg.Assets.CatalogToken = val
	}

	if val := os.Getenv("ARGON_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Engine.Workers = n
		}
	}

	if val := os.Getenv("ARGON_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("ARGON_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}

	if val := os.Getenv("ARGON_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("%w: server.address is required", domain.ErrConfigInvalid)
	}
	if c.Executor.BaseURL == "" {
		return fmt.Errorf("%w: executor.base_url is required", domain.ErrConfigInvalid)
	}
	if !strings.HasPrefix(c.Executor.BaseURL, "http://") && !strings.HasPrefix(c.Executor.BaseURL, "https://") {
		return fmt.Errorf("%w: executor.base_url must be an http(s) URL", domain.ErrConfigInvalid)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must not be negative", domain.ErrConfigInvalid)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: rate_limit.requests_per_second must not be negative", domain.ErrConfigInvalid)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", domain.ErrConfigInvalid, c.Logging.Level)
	}
	return nil
}
