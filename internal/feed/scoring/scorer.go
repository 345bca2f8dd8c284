// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package scoring implements the relevance score model for injection
// candidates.
//
// A score is a weighted blend of three terms, each bounded to [0,1]:
//
//   - author: the user's normalized affinity for the item's author
//   - engagement: a saturating log-scale function of interaction counts
//   - recency: exponential decay of item age over a configured window
//
// The model is a pure function. Same item, profile and weights always
// produce the same score, so callers may invoke it repeatedly and
// idempotently, including from concurrent requests.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/weftworks/weft/internal/feed"
)

// weightTolerance is the floating-point slack allowed before weights are
// renormalized. Serialized configs rarely sum to exactly 1.0.
const weightTolerance = 1e-6

// WeightConfig holds the relative contribution of each scoring term and
// the recency decay window. Weights are renormalized at construction, so
// they do not need to sum to 1.0; negative weights are rejected.
type WeightConfig struct {
	// Author is the weight of the author-affinity term.
	Author float64 `json:"author" koanf:"author" validate:"min=0"`

	// Engagement is the weight of the engagement term.
	Engagement float64 `json:"engagement" koanf:"engagement" validate:"min=0"`

	// Recency is the weight of the recency term.
	Recency float64 `json:"recency" koanf:"recency" validate:"min=0"`

	// DecayDays is the recency half-life window in days.
	// Default: 2.
	DecayDays float64 `json:"decay_days" koanf:"decay_days" validate:"gt=0"`
}

// DefaultWeights returns the production default weight configuration.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		Author:     0.4,
		Engagement: 0.3,
		Recency:    0.3,
		DecayDays:  2,
	}
}

// Normalize returns a copy with the three term weights scaled to sum to
// 1.0. A config already within tolerance of 1.0 is returned unchanged.
// All-zero weights normalize to equal thirds rather than dropping terms.
// Fails with feed.ErrInvalidWeightConfig if any weight is negative.
func (w WeightConfig) Normalize() (WeightConfig, error) {
	if w.Author < 0 || w.Engagement < 0 || w.Recency < 0 {
		return WeightConfig{}, fmt.Errorf("%w: weights must be non-negative, got author=%g engagement=%g recency=%g",
			feed.ErrInvalidWeightConfig, w.Author, w.Engagement, w.Recency)
	}

	sum := w.Author + w.Engagement + w.Recency
	if sum == 0 {
		w.Author, w.Engagement, w.Recency = 1.0/3, 1.0/3, 1.0/3
		return w, nil
	}
	if math.Abs(sum-1.0) <= weightTolerance {
		return w, nil
	}

	w.Author /= sum
	w.Engagement /= sum
	w.Recency /= sum
	return w, nil
}

// Model scores candidate items against a user's signal profile.
// It implements feed.Scorer and is safe for concurrent use.
type Model struct {
	weights WeightConfig
	decay   time.Duration
}

// NewModel creates a score model with the given weights. The weights are
// validated and normalized once here; Score itself can no longer fail.
func NewModel(weights WeightConfig) (*Model, error) {
	norm, err := weights.Normalize()
	if err != nil {
		return nil, err
	}

	if norm.DecayDays <= 0 {
		norm.DecayDays = DefaultWeights().DecayDays
	}

	return &Model{
		weights: norm,
		decay:   time.Duration(norm.DecayDays * 24 * float64(time.Hour)),
	}, nil
}

// Weights returns the normalized weight configuration in effect.
func (m *Model) Weights() WeightConfig {
	return m.weights
}

// Score returns the item's relevance for the profiled user in [0,1].
func (m *Model) Score(item feed.Item, profile feed.SignalProfile) float64 {
	s := m.weights.Author*m.authorTerm(item, profile) +
		m.weights.Engagement*engagementTerm(item.Engagement) +
		m.weights.Recency*m.recencyTerm(item, profile)

	// Guard against float drift at the boundaries.
	return math.Min(1, math.Max(0, s))
}

// authorTerm is the user's affinity for the item's author, normalized by
// the profile's maximum affinity. An unknown author scores 0; missing
// affinity data is not an error. A profile without per-user affinity
// (limited tracking) falls back to the population average.
func (m *Model) authorTerm(item feed.Item, profile feed.SignalProfile) float64 {
	if len(profile.AuthorAffinity) == 0 {
		return clamp01(profile.PopulationAffinity)
	}

	max := 0.0
	for _, a := range profile.AuthorAffinity {
		if a > max {
			max = a
		}
	}
	if max <= 0 {
		return 0
	}
	return clamp01(profile.AuthorAffinity[item.AuthorID] / max)
}

// engagementTerm maps interaction counts to [0,1). It is monotonically
// increasing and saturating: log scale keeps viral items from drowning
// out everything else. Replies signal more effort than boosts, boosts
// more than favorites.
func engagementTerm(e feed.Engagement) float64 {
	raw := 3*float64(e.Replies) + 2*float64(e.Boosts) + float64(e.Favorites)
	if raw <= 0 {
		return 0
	}
	l := math.Log1p(raw)
	return l / (l + 1)
}

// recencyTerm is exp(-age/decay). Items timestamped in the future clamp
// to the maximum recency value rather than erroring; clock skew between
// federated servers is routine.
func (m *Model) recencyTerm(item feed.Item, profile feed.SignalProfile) float64 {
	age := profile.ReferenceTime().Sub(item.CreatedAt)
	if age <= 0 {
		return 1
	}
	return math.Exp(-float64(age) / float64(m.decay))
}

// Rank scores every item in the pool and returns a new slice sorted by
// score descending, ties broken by item ID lexically for determinism.
// Each returned item carries its score annotation; the input is not
// mutated.
func Rank(m feed.Scorer, pool []feed.Item, profile feed.SignalProfile) []feed.Item {
	ranked := make([]feed.Item, len(pool))
	for i, item := range pool {
		s := m.Score(item, profile)
		item.Score = &s
		ranked[i] = item
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].Score != *ranked[j].Score {
			return *ranked[i].Score > *ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	return ranked
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
