package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration for one pipeline execution.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Sink     SinkConfig     `yaml:"sink"`
	Weights  Weights        `yaml:"weights"`
}

// InputConfig describes the raw listings CSV and the row-level filters
// applied while loading it.
type InputConfig struct {
	Path        string `yaml:"path"`
	CountryCode int    `yaml:"country_code"`
	// DropColumn is removed from the parsed schema if present. A missing
	// column is not an error; the loader proceeds without dropping anything.
	DropColumn string `yaml:"drop_column"`
}

// OutputConfig describes the export directory and the summary threshold.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// ScoreThreshold gates the high-score summary export. Strictly greater
	// than: a row scoring exactly the threshold is excluded.
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// GeocoderConfig configures the reverse-geocoding adapter.
type GeocoderConfig struct {
	BaseURL        string   `yaml:"base_url"`
	RequestTimeout Duration `yaml:"request_timeout"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	UserAgent      string   `yaml:"user_agent"`
	// Cache selects the postcode cache backend: "memory" or "redis".
	Cache     string `yaml:"cache"`
	RedisAddr string `yaml:"redis_addr"`
}

// SinkConfig configures the optional Postgres export. Disabled by default;
// enabling it without a DSN fails validation.
type SinkConfig struct {
	Enabled      bool     `yaml:"enabled"`
	DSN          string   `yaml:"dsn"`
	MaxOpenConns int      `yaml:"max_open_conns"`
	QueryTimeout Duration `yaml:"query_timeout"`
}

// Default returns the canonical configuration: country code 1, threshold
// 0.45, and the 0.3/0.3/0.3/0.1 weight split.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			CountryCode: 1,
			DropColumn:  "Switch to order menu",
		},
		Output: OutputConfig{
			Dir:            "out",
			ScoreThreshold: 0.45,
		},
		Geocoder: GeocoderConfig{
			BaseURL:        "https://nominatim.openstreetmap.org",
			RequestTimeout: Duration(10 * time.Second),
			RateLimitRPS:   1.0,
			UserAgent:      "oppscore/1.0 (locality-scoring)",
			Cache:          "memory",
		},
		Sink: SinkConfig{
			Enabled:      false,
			MaxOpenConns: 5,
			QueryTimeout: Duration(30 * time.Second),
		},
		Weights: DefaultWeights(),
	}
}

// LoadFromFile reads and validates a YAML configuration file. Fields absent
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input path is required")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output dir is required")
	}

	if c.Output.ScoreThreshold < 0 || c.Output.ScoreThreshold > 1 {
		return fmt.Errorf("score threshold %.3f outside [0,1]", c.Output.ScoreThreshold)
	}

	switch c.Geocoder.Cache {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown geocoder cache backend: %s", c.Geocoder.Cache)
	}

	if c.Geocoder.Cache == "redis" && c.Geocoder.RedisAddr == "" {
		return fmt.Errorf("redis cache requires redis_addr")
	}

	if c.Sink.Enabled && c.Sink.DSN == "" {
		return fmt.Errorf("sink DSN is required when sink is enabled")
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}
