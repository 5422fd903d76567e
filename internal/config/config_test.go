package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxDepth)
	assert.Equal(t, 200, cfg.MaxPagesPerJob)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, PrecedencePriceWins, cfg.MergePrecedence)
	assert.InDelta(t, 0.8, cfg.FuzzyMatchThreshold, 1e-9)
	assert.True(t, cfg.Headless)

	assert.Equal(t, time.Second, cfg.PerOriginDelay())
	assert.Equal(t, 30*time.Second, cfg.PageLoadTimeout())
	assert.Equal(t, 15*time.Minute, cfg.JobTimeout())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MAX_DEPTH", "2")
	t.Setenv("MERGE_PRECEDENCE", PrecedenceScrapeWins)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, PrecedenceScrapeWins, cfg.MergePrecedence)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MERGE_PRECEDENCE", "newest-wins")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MERGE_PRECEDENCE", PrecedencePriceWins)
	t.Setenv("FUZZY_MATCH_THRESHOLD", "1.5")
	_, err = Load()
	assert.Error(t, err)
}
