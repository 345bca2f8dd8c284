// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

package feed

import (
	"sort"
	"strings"
	"time"
)

// TrackingLevel is a user's consent tier controlling how much
// personalization data may be used. It is attached to the user at request
// time by an identity collaborator; the engine only consumes it.
type TrackingLevel string

const (
	// TrackingFull permits scoring with the complete signal profile.
	TrackingFull TrackingLevel = "full"
	// TrackingLimited permits scoring with aggregate signal only.
	TrackingLimited TrackingLevel = "limited"
	// TrackingNone forbids personalized scoring entirely.
	TrackingNone TrackingLevel = "none"
)

// ParseTrackingLevel maps a wire string to a TrackingLevel.
// Unrecognized values degrade to TrackingNone; an unknown consent tier
// must never grant more access than an explicit opt-out.
func ParseTrackingLevel(s string) TrackingLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return TrackingFull
	case "limited":
		return TrackingLimited
	default:
		return TrackingNone
	}
}

// Engagement holds the non-negative interaction counts of an item.
type Engagement struct {
	// Replies is the number of direct replies.
	Replies int `json:"replies"`

	// Boosts is the number of reshares.
	Boosts int `json:"boosts"`

	// Favorites is the number of favorites/likes.
	Favorites int `json:"favorites"`
}

// Total returns the summed interaction count.
func (e Engagement) Total() int {
	return e.Replies + e.Boosts + e.Favorites
}

// InjectionMeta describes why and how an item was injected.
type InjectionMeta struct {
	// Source identifies where the item came from, e.g. "ranked" or "cold_start".
	Source string `json:"source"`

	// Strategy is the merge strategy that placed the item.
	Strategy string `json:"strategy"`

	// Explanation is a human-readable reason suitable for display.
	Explanation string `json:"explanation"`

	// Score is the relevance score the item carried when placed, if any.
	Score float64 `json:"score"`
}

// Item is a content post or injection candidate.
//
// All fields above the annotation block are immutable inputs. Score,
// Injected and Injection are annotations the engine sets at most once per
// item per request; they arrive zero-valued from collaborators.
type Item struct {
	// ID is an opaque unique identifier. Downstream ranking ties break on
	// it lexically for determinism.
	ID string `json:"id"`

	// AuthorID identifies the item's author.
	AuthorID string `json:"author_id"`

	// CreatedAt is the item's creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Tags is the item's tag set: unordered, deduplicated, lowercase.
	Tags []string `json:"tags,omitempty"`

	// Engagement holds the item's interaction counts.
	Engagement Engagement `json:"engagement"`

	// Score is the relevance score assigned by the scorer, if any.
	Score *float64 `json:"score,omitempty"`

	// Injected marks items placed into the feed by the merge engine.
	Injected bool `json:"injected,omitempty"`

	// Injection carries placement metadata for injected items.
	Injection *InjectionMeta `json:"injection_metadata,omitempty"`
}

// HasTag reports whether the item carries the given tag.
// Matching is case-insensitive.
func (it Item) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range it.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

// SharesTag reports whether two items have at least one tag in common.
func (it Item) SharesTag(other Item) bool {
	for _, t := range other.Tags {
		if it.HasTag(t) {
			return true
		}
	}
	return false
}

// NormalizeTags lowercases, trims and deduplicates a tag list, preserving
// first-occurrence order. Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SortChronological sorts items newest first, in place. Equal timestamps
// order by ID so repeated calls over identical input are deterministic.
func SortChronological(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// SignalProfile is the per-user aggregate the scorer reads. It is supplied
// by an identity collaborator; the engine never writes to it.
type SignalProfile struct {
	// AuthorAffinity maps author ID to a non-negative affinity weight
	// derived from the user's interaction history.
	AuthorAffinity map[string]float64 `json:"author_affinity,omitempty"`

	// PopulationAffinity is the population-average affinity value in [0,1]
	// used in place of per-user affinity under limited tracking.
	PopulationAffinity float64 `json:"population_affinity,omitempty"`

	// InteractionCount is the user's historical engagement aggregate.
	InteractionCount int `json:"interaction_count,omitempty"`

	// Now is the recency reference point. Zero means time.Now at use.
	Now time.Time `json:"-"`
}

// HasSignal reports whether the profile carries any usable per-user
// personalization signal.
func (p SignalProfile) HasSignal() bool {
	return len(p.AuthorAffinity) > 0
}

// ReferenceTime returns the profile's recency anchor, defaulting to the
// current time.
func (p SignalProfile) ReferenceTime() time.Time {
	if p.Now.IsZero() {
		return time.Now()
	}
	return p.Now
}

// Scorer assigns a relevance score in [0,1] to a candidate item.
// Implementations must be pure: no side effects, no shared mutable state.
type Scorer interface {
	// Score returns the item's relevance for the profiled user.
	Score(item Item, profile SignalProfile) float64
}
