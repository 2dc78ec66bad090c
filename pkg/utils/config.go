package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"onspop/internal/ons"
	"onspop/internal/output"
	"onspop/internal/resolve"
)

// Config drives one fetch run. Values come from defaults, then an
// optional YAML file, then ONSPOP_* environment variables.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	OutputPath        string        `yaml:"output_path"`
	DimensionStrategy string        `yaml:"dimension_strategy"` // heuristic | static
	StrictTitle       bool          `yaml:"strict_title"`
	AllowAgeSum       bool          `yaml:"allow_age_sum"`
	OptionPageSize    int           `yaml:"option_page_size"`
	Timeout           time.Duration `yaml:"timeout"` // whole run; 0 disables
	HistoryDB         string        `yaml:"history_db"`
	LogLevel          string        `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:           ons.DefaultBaseURL,
		OutputPath:        output.DefaultPath,
		DimensionStrategy: resolve.StrategyHeuristic,
		AllowAgeSum:       true,
		OptionPageSize:    ons.DefaultOptionPageSize,
		Timeout:           2 * time.Minute,
		LogLevel:          "info",
	}
}

// LoadConfig builds a Config. path may be empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ONSPOP_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("ONSPOP_OUTPUT"); v != "" {
		c.OutputPath = v
	}
	if v := os.Getenv("ONSPOP_DIMENSION_STRATEGY"); v != "" {
		c.DimensionStrategy = v
	}
	if v := os.Getenv("ONSPOP_HISTORY_DB"); v != "" {
		c.HistoryDB = v
	}
	if v := os.Getenv("ONSPOP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("ONSPOP_STRICT_TITLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ONSPOP_STRICT_TITLE: %w", err)
		}
		c.StrictTitle = b
	}
	if v := os.Getenv("ONSPOP_ALLOW_AGE_SUM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ONSPOP_ALLOW_AGE_SUM: %w", err)
		}
		c.AllowAgeSum = b
	}
	if v := os.Getenv("ONSPOP_OPTION_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ONSPOP_OPTION_PAGE_SIZE: %w", err)
		}
		c.OptionPageSize = n
	}
	if v := os.Getenv("ONSPOP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ONSPOP_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("config: output_path is required")
	}
	if _, err := resolve.NewRoleMatcher(c.DimensionStrategy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.OptionPageSize <= 0 {
		return fmt.Errorf("config: option_page_size must be positive, got %d", c.OptionPageSize)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	return nil
}

// TitleMatcher returns the dataset title predicate selected by StrictTitle.
func (c Config) TitleMatcher() resolve.TitleMatcher {
	if c.StrictTitle {
		return resolve.StrictTitleMatcher()
	}
	return resolve.DefaultTitleMatcher()
}
