// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package config defines the application configuration and its layered
// loading order: built-in defaults, an optional YAML file, then
// environment variables. Later layers override earlier ones.
package config

import (
	"fmt"
	"time"

	"github.com/weftworks/weft/internal/feed/merge"
	"github.com/weftworks/weft/internal/feed/scoring"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/internal/validation"
)

// Config is the root configuration for the weft service.
type Config struct {
	Weights   scoring.WeightConfig `koanf:"weights"`
	Ranking   RankingConfig        `koanf:"ranking"`
	ColdStart ColdStartConfig      `koanf:"cold_start"`
	Strategy  StrategyConfig       `koanf:"strategy"`
	Logging   logging.Config       `koanf:"logging"`
}

// RankingConfig controls candidate selection and score snapshot reuse.
type RankingConfig struct {
	// MinInteractions is the interaction count below which a reader is
	// treated as new and served by the cold start selector instead of
	// the personalized model.
	MinInteractions int `koanf:"min_interactions" validate:"min=0"`

	// MaxCandidates caps how many ranked candidates are considered for
	// injection per request. Zero means no cap.
	MaxCandidates int `koanf:"max_candidates" validate:"min=0"`

	// SnapshotTTL is how long a stored ranking snapshot stays fresh.
	SnapshotTTL time.Duration `koanf:"snapshot_ttl" validate:"min=0"`
}

// ColdStartConfig controls the selector used for low-signal readers.
type ColdStartConfig struct {
	Enabled bool `koanf:"enabled"`

	// Limit is the maximum number of items the selector returns.
	Limit int `koanf:"limit" validate:"min=0"`

	// Diversify spreads picks across tags rather than taking the pool
	// in order.
	Diversify bool `koanf:"diversify"`

	Shuffle bool  `koanf:"shuffle"`
	Seed    int64 `koanf:"seed"`
}

// StrategyConfig mirrors merge.Strategy with a plain string type so it
// can round-trip through YAML and environment variables.
type StrategyConfig struct {
	Type              string `koanf:"type" validate:"oneof=uniform after_n first_only tag_match"`
	MaxInjections     int    `koanf:"max_injections"`
	N                 int    `koanf:"n" validate:"min=0"`
	MinGapMinutes     int    `koanf:"min_gap_minutes" validate:"min=0"`
	ShuffleInjectable bool   `koanf:"shuffle_injectable"`
	Seed              int64  `koanf:"seed"`
}

// ToStrategy converts the config section into a merge.Strategy.
func (s StrategyConfig) ToStrategy() (merge.Strategy, error) {
	typ, err := merge.ParseType(s.Type)
	if err != nil {
		return merge.Strategy{}, err
	}
	return merge.Strategy{
		Type:              typ,
		MaxInjections:     s.MaxInjections,
		N:                 s.N,
		MinGapMinutes:     s.MinGapMinutes,
		ShuffleInjectable: s.ShuffleInjectable,
		Seed:              s.Seed,
	}, nil
}

// defaultConfig returns a Config with all defaults applied. These are
// loaded first and overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Weights: scoring.DefaultWeights(),
		Ranking: RankingConfig{
			MinInteractions: 5,
			MaxCandidates:   200,
			SnapshotTTL:     5 * time.Minute,
		},
		ColdStart: ColdStartConfig{
			Enabled:   true,
			Limit:     10,
			Diversify: true,
			Shuffle:   false,
			Seed:      0,
		},
		Strategy: StrategyConfig{
			Type:              string(merge.Uniform),
			MaxInjections:     -1,
			N:                 3,
			MinGapMinutes:     0,
			ShuffleInjectable: false,
			Seed:              0,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks struct tags first, then the domain rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if _, err := c.Weights.Normalize(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if _, err := c.Strategy.ToStrategy(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	return nil
}
