// Package config resolves runtime settings from the environment, with an
// optional YAML file for source definitions. Classifier and scam thresholds
// are deliberately NOT configurable; they are constants pinned by tests.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	TickInterval     time.Duration `yaml:"-"` // DEFAULT_TICK_MS
	MinFetchInterval time.Duration `yaml:"-"` // MIN_FETCH_INTERVAL_MS
	CacheTTL         time.Duration `yaml:"-"` // CACHE_TTL_MS
	MaxRetries       int           `yaml:"-"` // MAX_RETRIES
	HTTPDeadline     time.Duration `yaml:"-"` // HTTP_DEADLINE_MS

	// Faster secondary refresh cadences over the existing snapshot.
	MetricsRefresh   time.Duration `yaml:"-"`
	NarrativeRefresh time.Duration `yaml:"-"`

	ModelURL     string `yaml:"model_url"`
	ModelName    string `yaml:"model_name"`
	ModelKeyEnv  string `yaml:"model_key_env"`
	RedisAddr    string `yaml:"redis_addr"`
	DexBaseURL   string `yaml:"dex_base_url"`
	GeckoBaseURL string `yaml:"gecko_base_url"`

	Sources SourcesConfig `yaml:"sources"`
}

// SourcesConfig defines what the assembler pulls each tick.
type SourcesConfig struct {
	// SearchTerms rotate through the long tail; a small window is used per
	// tick to stay inside the public rate limits.
	SearchTerms   []string `yaml:"search_terms"`
	TermsPerTick  int      `yaml:"terms_per_tick"`
	Ecosystems    []string `yaml:"ecosystems"` // e.g. bonk, bags
	MaxFeedTokens int      `yaml:"max_feed_tokens"`

	// PulseOtherSplit apportions unattributed "other" volume between Meteora
	// and Orca in the market pulse. It is a display heuristic, not a
	// measurement; the 60/40 default matches observed dex share.
	PulseOtherSplit float64 `yaml:"pulse_other_split"`
}

// Load resolves config from the environment, then overlays the optional YAML
// file at path (empty path skips the file).
func Load(path string) (*Config, error) {
	cfg := &Config{
		Host:             "0.0.0.0",
		Port:             envInt("HTTP_PORT", 8787),
		TickInterval:     envMS("DEFAULT_TICK_MS", 120_000),
		MinFetchInterval: envMS("MIN_FETCH_INTERVAL_MS", 60_000),
		CacheTTL:         envMS("CACHE_TTL_MS", 120_000),
		MaxRetries:       envInt("MAX_RETRIES", 2),
		HTTPDeadline:     envMS("HTTP_DEADLINE_MS", 8_000),
		MetricsRefresh:   30 * time.Second,
		NarrativeRefresh: 120 * time.Second,
		ModelKeyEnv:      "MODEL_API_KEY",
		RedisAddr:        envStr("REDIS_ADDR", "localhost:6379"),
		Sources: SourcesConfig{
			SearchTerms:     []string{"pepe", "wif", "bonk", "cat", "trump", "ai agent", "dog", "moon"},
			TermsPerTick:    2,
			Ecosystems:      []string{"bonk", "bags"},
			MaxFeedTokens:   50,
			PulseOtherSplit: 0.6,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.TickInterval < 10*time.Second {
		return fmt.Errorf("tick interval %v below 10s floor", c.TickInterval)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries %d outside [0,10]", c.MaxRetries)
	}
	if c.HTTPDeadline < time.Second || c.HTTPDeadline > 30*time.Second {
		return fmt.Errorf("http deadline %v outside [1s,30s]", c.HTTPDeadline)
	}
	if c.Sources.PulseOtherSplit < 0 || c.Sources.PulseOtherSplit > 1 {
		return fmt.Errorf("pulse_other_split %.2f outside [0,1]", c.Sources.PulseOtherSplit)
	}
	if c.Sources.TermsPerTick <= 0 {
		c.Sources.TermsPerTick = 1
	}
	if c.Sources.MaxFeedTokens <= 0 {
		c.Sources.MaxFeedTokens = 50
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envMS(key string, defMS int) time.Duration {
	return time.Duration(envInt(key, defMS)) * time.Millisecond
}
