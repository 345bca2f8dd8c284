// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

package merge

import (
	"fmt"
	"strings"

	"github.com/weftworks/weft/internal/feed"
)

// Type selects how injection gaps are chosen.
type Type string

const (
	// Uniform spreads injections as evenly as possible across the feed.
	Uniform Type = "uniform"
	// AfterN injects after every n-th real item.
	AfterN Type = "after_n"
	// FirstOnly restricts injections to gaps within the first ten real items.
	FirstOnly Type = "first_only"
	// TagMatch injects only where a candidate shares a tag with the real
	// item anchoring the gap.
	TagMatch Type = "tag_match"
)

// defaultN is the after_n interval when none is configured.
const defaultN = 3

// DefaultSeed seeds the injectable shuffle when no seed is supplied.
// A fixed default keeps unseeded merges reproducible.
const DefaultSeed = 42

// firstOnlyWindow is how many leading real items first_only may inject
// after.
const firstOnlyWindow = 10

// ParseType maps a wire string to a strategy Type.
// Fails with feed.ErrUnknownStrategy for anything unrecognized.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Uniform:
		return Uniform, nil
	case AfterN:
		return AfterN, nil
	case FirstOnly:
		return FirstOnly, nil
	case TagMatch:
		return TagMatch, nil
	default:
		return "", fmt.Errorf("%w: %q", feed.ErrUnknownStrategy, s)
	}
}

// Strategy is the declarative configuration of one merge call.
type Strategy struct {
	// Type selects the gap-placement rule.
	Type Type `json:"type" koanf:"type"`

	// MaxInjections caps how many items may be injected. Negative means
	// the whole injectable pool is in budget.
	MaxInjections int `json:"max_injections" koanf:"max_injections"`

	// N is the after_n interval. Non-positive falls back to 3.
	N int `json:"n" koanf:"n"`

	// ShuffleInjectable randomizes the injectable pool before the budget
	// truncates it. Shuffling changes which items are chosen, never the
	// chronological order of the output.
	ShuffleInjectable bool `json:"shuffle_injectable" koanf:"shuffle_injectable"`

	// MinGapMinutes is the minimum real-item time difference, in minutes,
	// a gap must span to accept an injection.
	MinGapMinutes int `json:"min_gap_minutes" koanf:"min_gap_minutes"`

	// Seed drives the shuffle for reproducible output. Zero uses
	// DefaultSeed.
	Seed int64 `json:"seed,omitempty" koanf:"seed"`
}

// DefaultStrategy returns the server-side default: uniform spreading with
// the full pool in budget.
func DefaultStrategy() Strategy {
	return Strategy{
		Type:          Uniform,
		MaxInjections: -1,
		N:             defaultN,
	}
}

// validate rejects unknown strategy types, the merge path's only hard
// error.
func (s Strategy) validate() error {
	switch s.Type {
	case Uniform, AfterN, FirstOnly, TagMatch:
		return nil
	default:
		return fmt.Errorf("%w: %q", feed.ErrUnknownStrategy, s.Type)
	}
}

// interval returns the effective after_n interval.
func (s Strategy) interval() int {
	if s.N <= 0 {
		return defaultN
	}
	return s.N
}

// budget returns k, the effective injection cap for a pool of the given
// size.
func (s Strategy) budget(poolSize int) int {
	if s.MaxInjections < 0 || s.MaxInjections > poolSize {
		return poolSize
	}
	return s.MaxInjections
}
