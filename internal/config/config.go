// Package config handles configuration loading for the fund advisor.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	Advisor AdvisorConfig `mapstructure:"advisor" yaml:"advisor"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig holds generator provider configuration.
type LLMConfig struct {
	AnthropicKey string  `mapstructure:"anthropic_key" yaml:"anthropic_key"`
	BaseURL      string  `mapstructure:"base_url"      yaml:"base_url"` // Anthropic-compatible endpoint override
	Model        string  `mapstructure:"model"         yaml:"model"`
	Temperature  float64 `mapstructure:"temperature"   yaml:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"    yaml:"max_tokens"`
}

// Configured reports whether the generator can be constructed.
func (c LLMConfig) Configured() bool { return c.AnthropicKey != "" }

// DataConfig holds the cache store and data provider settings.
type DataConfig struct {
	DBPath           string   `mapstructure:"db_path"            yaml:"db_path"`
	Providers        []string `mapstructure:"providers"          yaml:"providers"` // priority order
	TushareToken     string   `mapstructure:"tushare_token"      yaml:"tushare_token"`
	NAVStaleDays     int      `mapstructure:"nav_stale_days"     yaml:"nav_stale_days"`
	BasicStaleDays   int      `mapstructure:"basic_stale_days"   yaml:"basic_stale_days"`
	ListStaleHours   int      `mapstructure:"list_stale_hours"   yaml:"list_stale_hours"`
	RequestsPerMin   int      `mapstructure:"requests_per_min"   yaml:"requests_per_min"`
	RetainHistoryDays int     `mapstructure:"retain_history_days" yaml:"retain_history_days"`
}

// AdvisorConfig holds conversation and screening settings.
type AdvisorConfig struct {
	ShortlistSize int `mapstructure:"shortlist_size" yaml:"shortlist_size"`
	HistoryWindow int `mapstructure:"history_window" yaml:"history_window"` // messages kept per stage prompt
	MaxAttempts   int `mapstructure:"max_attempts"   yaml:"max_attempts"`   // generate-validate attempts
}

// NewsConfig holds the optional market-news feed settings for the follow-up
// stage context.
type NewsConfig struct {
	FeedURLs []string `mapstructure:"feed_urls" yaml:"feed_urls"`
	MaxItems int      `mapstructure:"max_items" yaml:"max_items"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.fundadvisor/config.yaml (home directory)
//  3. /etc/fundadvisor/config.yaml (system)
//
// Environment variables override config file values.
// Format: FUNDADVISOR_<SECTION>_<KEY>, e.g., FUNDADVISOR_LLM_ANTHROPIC_KEY
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fundadvisor"))
	v.AddConfigPath("/etc/fundadvisor")

	v.SetEnvPrefix("FUNDADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FUNDADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2048)

	v.SetDefault("data.db_path", filepath.Join(homeDir(), ".fundadvisor", "fund_cache.db"))
	v.SetDefault("data.providers", []string{"eastmoney", "sina", "tushare"})
	v.SetDefault("data.nav_stale_days", 1)
	v.SetDefault("data.basic_stale_days", 7)
	v.SetDefault("data.list_stale_hours", 24)
	v.SetDefault("data.requests_per_min", 60)
	v.SetDefault("data.retain_history_days", 365)

	v.SetDefault("advisor.shortlist_size", 10)
	v.SetDefault("advisor.history_window", 30)
	v.SetDefault("advisor.max_attempts", 3)

	v.SetDefault("news.max_items", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FUNDADVISOR_LLM_ANTHROPIC_KEY"); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	if url := os.Getenv("FUNDADVISOR_LLM_BASE_URL"); url != "" {
		cfg.LLM.BaseURL = url
	}
	if tok := os.Getenv("FUNDADVISOR_DATA_TUSHARE_TOKEN"); tok != "" {
		cfg.Data.TushareToken = tok
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
