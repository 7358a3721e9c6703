package config

import (
	"fmt"
	"time"
)

// RecommendationConfig holds the tunable bounds of the recommendation
// pipeline. The requested-count maximum is configuration by design: the UI's
// 5- and 10-count modes both sit under it, and raising it must never require
// a code change.
type RecommendationConfig struct {
	DailyLimit        int           // generation calls per user per 24h window
	MaxRequestedCount int           // ceiling on requested_count
	MinSignals        int           // minimum rated books before generating
	MaxSignals        int           // most-recent ratings included in a prompt
	CompletionTimeout time.Duration // hard deadline on one completion call
	Temperature       float64
	MaxTokens         int
}

// NewRecommendationConfig loads the recommendation bounds from environment
// variables, applying defaults for anything unset.
func NewRecommendationConfig() (*RecommendationConfig, error) {
	cfg := &RecommendationConfig{
		DailyLimit:        getEnvInt("RECOMMENDATION_DAILY_LIMIT", 10),
		MaxRequestedCount: getEnvInt("RECOMMENDATION_MAX_COUNT", 10),
		MinSignals:        getEnvInt("RECOMMENDATION_MIN_SIGNALS", 3),
		MaxSignals:        getEnvInt("RECOMMENDATION_MAX_SIGNALS", 25),
		CompletionTimeout: getEnvDuration("RECOMMENDATION_COMPLETION_TIMEOUT", 30*time.Second),
		Temperature:       getEnvFloat("RECOMMENDATION_TEMPERATURE", 0.7),
		MaxTokens:         getEnvInt("RECOMMENDATION_MAX_TOKENS", 2048),
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *RecommendationConfig) normalize() error {
	if c.DailyLimit < 1 {
		return fmt.Errorf("RECOMMENDATION_DAILY_LIMIT must be at least 1, got: %d", c.DailyLimit)
	}
	if c.MaxRequestedCount < 1 {
		return fmt.Errorf("RECOMMENDATION_MAX_COUNT must be at least 1, got: %d", c.MaxRequestedCount)
	}
	if c.MinSignals < 1 {
		return fmt.Errorf("RECOMMENDATION_MIN_SIGNALS must be at least 1, got: %d", c.MinSignals)
	}
	if c.MaxSignals < c.MinSignals {
		return fmt.Errorf("RECOMMENDATION_MAX_SIGNALS (%d) must not be below RECOMMENDATION_MIN_SIGNALS (%d)", c.MaxSignals, c.MinSignals)
	}
	if c.CompletionTimeout <= 0 {
		return fmt.Errorf("RECOMMENDATION_COMPLETION_TIMEOUT must be positive, got: %s", c.CompletionTimeout)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("RECOMMENDATION_TEMPERATURE must be in [0, 2], got: %g", c.Temperature)
	}
	return nil
}
