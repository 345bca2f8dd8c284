// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/weft/config.yaml",
	"/etc/weft/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "WEFT_CONFIG_PATH"

// Load builds the configuration from three layers, highest priority
// last:
//
//  1. Defaults from defaultConfig
//  2. Optional YAML config file
//  3. Environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// WEFT_WEIGHT_AUTHOR -> weights.author, WEFT_LOG_LEVEL -> logging.level
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first readable config file path, or the
// empty string when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf
// config paths. Unlisted variables are ignored so unrelated process
// environment never leaks into the config.
var envMappings = map[string]string{
	"weft_weight_author":     "weights.author",
	"weft_weight_engagement": "weights.engagement",
	"weft_weight_recency":    "weights.recency",
	"weft_decay_days":        "weights.decay_days",

	"weft_min_interactions": "ranking.min_interactions",
	"weft_max_candidates":   "ranking.max_candidates",
	"weft_snapshot_ttl":     "ranking.snapshot_ttl",

	"weft_cold_start_enabled":   "cold_start.enabled",
	"weft_cold_start_limit":     "cold_start.limit",
	"weft_cold_start_diversify": "cold_start.diversify",
	"weft_cold_start_shuffle":   "cold_start.shuffle",
	"weft_cold_start_seed":      "cold_start.seed",

	"weft_strategy":           "strategy.type",
	"weft_max_injections":     "strategy.max_injections",
	"weft_inject_after_n":     "strategy.n",
	"weft_min_gap_minutes":    "strategy.min_gap_minutes",
	"weft_shuffle_injectable": "strategy.shuffle_injectable",
	"weft_shuffle_seed":       "strategy.seed",

	"weft_log_level":  "logging.level",
	"weft_log_format": "logging.format",
	"weft_log_caller": "logging.caller",
}

// envTransformFunc translates environment variable names to koanf
// config paths. Variables without a mapping are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
