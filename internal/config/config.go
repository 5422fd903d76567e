package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Merge precedence values accepted by MERGE_PRECEDENCE.
const (
	PrecedencePriceWins  = "price-wins"
	PrecedenceScrapeWins = "scrape-wins"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	MaxDepth            int     `mapstructure:"MAX_DEPTH"`
	MaxPagesPerJob      int     `mapstructure:"MAX_PAGES_PER_JOB"`
	Concurrency         int     `mapstructure:"CONCURRENCY"`
	PerOriginDelayMS    int     `mapstructure:"PER_ORIGIN_DELAY_MS"`
	PaginationBudget    int     `mapstructure:"PAGINATION_BUDGET"`
	MaxRetries          int     `mapstructure:"MAX_RETRIES"`
	PageLoadTimeoutSec  int     `mapstructure:"PAGE_LOAD_TIMEOUT"`
	JobTimeoutSec       int     `mapstructure:"JOB_TIMEOUT"`
	FuzzyMatchThreshold float64 `mapstructure:"FUZZY_MATCH_THRESHOLD"`
	MergePrecedence     string  `mapstructure:"MERGE_PRECEDENCE"`
	SearchEndpoint      string  `mapstructure:"SEARCH_ENDPOINT"`
	Headless            bool    `mapstructure:"HEADLESS"`
	DeduplicationDays   int     `mapstructure:"DEDUPLICATION_DAYS"`
}

// Load reads configuration from a .env file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("MAX_DEPTH", 4)
	viper.SetDefault("MAX_PAGES_PER_JOB", 200)
	viper.SetDefault("CONCURRENCY", 4)
	viper.SetDefault("PER_ORIGIN_DELAY_MS", 1000)
	viper.SetDefault("PAGINATION_BUDGET", 5)
	viper.SetDefault("MAX_RETRIES", 2)
	viper.SetDefault("PAGE_LOAD_TIMEOUT", 30) // in seconds
	viper.SetDefault("JOB_TIMEOUT", 900)      // in seconds
	viper.SetDefault("FUZZY_MATCH_THRESHOLD", 0.8)
	viper.SetDefault("MERGE_PRECEDENCE", PrecedencePriceWins)
	viper.SetDefault("SEARCH_ENDPOINT", "https://html.duckduckgo.com/html/")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("DEDUPLICATION_DAYS", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.MergePrecedence != PrecedencePriceWins && cfg.MergePrecedence != PrecedenceScrapeWins {
		return nil, fmt.Errorf("invalid MERGE_PRECEDENCE %q", cfg.MergePrecedence)
	}
	if cfg.FuzzyMatchThreshold <= 0 || cfg.FuzzyMatchThreshold > 1 {
		return nil, fmt.Errorf("FUZZY_MATCH_THRESHOLD must be in (0, 1], got %v", cfg.FuzzyMatchThreshold)
	}
	return &cfg, nil
}

// PerOriginDelay is the rate-limit interval between fetches on one origin.
func (c *Config) PerOriginDelay() time.Duration {
	return time.Duration(c.PerOriginDelayMS) * time.Millisecond
}

// PageLoadTimeout bounds a single fetch, including rendering.
func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSec) * time.Second
}

// JobTimeout is the wall-clock budget for one whole job.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSec) * time.Second
}
