// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package coldstart supplies a bounded, diversified candidate set when no
// personalization signal exists for a user: new accounts, anonymous
// sessions, or tracking consent that disables scoring.
package coldstart

import (
	"math/rand"
	"sort"

	"github.com/weftworks/weft/internal/feed"
)

// Source is the injection_metadata source value stamped on every item the
// selector returns.
const Source = "cold_start"

// uncategorized is the partition bucket for items without tags.
const uncategorized = ""

// Selector picks curated items for signal-less users.
// Selection is deterministic unless a shuffle seed is configured.
type Selector struct {
	shuffle bool
	seed    int64
}

// Option configures a Selector.
type Option func(*Selector)

// WithShuffle randomizes within-category order using the given seed.
// Without it, stable input order is preserved inside each category.
func WithShuffle(seed int64) Option {
	return func(s *Selector) {
		s.shuffle = true
		s.seed = seed
	}
}

// NewSelector creates a cold start selector.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns up to limit items from the pool, stamped with cold start
// injection metadata. An empty pool or non-positive limit returns an empty
// slice, never an error.
//
// With diversify set, the pool is partitioned by leading tag and drained
// round-robin so no single category dominates the first limit results.
// Without it, the first limit items are taken in input order.
func (s *Selector) Select(pool []feed.Item, limit int, diversify bool) []feed.Item {
	if len(pool) == 0 || limit <= 0 {
		return []feed.Item{}
	}
	if limit > len(pool) {
		limit = len(pool)
	}

	var picked []feed.Item
	if diversify {
		picked = s.roundRobin(pool, limit)
	} else {
		picked = s.take(pool, limit)
	}

	for i := range picked {
		picked[i].Injection = &feed.InjectionMeta{
			Source:      Source,
			Explanation: "curated for new readers",
		}
	}
	return picked
}

// take copies the first limit items, shuffling first when configured.
func (s *Selector) take(pool []feed.Item, limit int) []feed.Item {
	items := make([]feed.Item, len(pool))
	copy(items, pool)
	if s.shuffle {
		rng := rand.New(rand.NewSource(s.seed))
		rng.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	}
	return items[:limit:limit]
}

// roundRobin partitions the pool by category and takes one item per
// category in turn until limit is reached. Categories cycle in sorted
// order so the result is independent of map iteration.
func (s *Selector) roundRobin(pool []feed.Item, limit int) []feed.Item {
	buckets := make(map[string][]feed.Item)
	for _, item := range pool {
		c := category(item)
		buckets[c] = append(buckets[c], item)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if s.shuffle {
		rng := rand.New(rand.NewSource(s.seed))
		for _, k := range keys {
			b := buckets[k]
			rng.Shuffle(len(b), func(i, j int) {
				b[i], b[j] = b[j], b[i]
			})
		}
	}

	out := make([]feed.Item, 0, limit)
	for len(out) < limit {
		drained := true
		for _, k := range keys {
			if len(buckets[k]) == 0 {
				continue
			}
			drained = false
			out = append(out, buckets[k][0])
			buckets[k] = buckets[k][1:]
			if len(out) == limit {
				break
			}
		}
		if drained {
			break
		}
	}
	return out
}

// category assigns an item to a partition bucket by its first tag.
func category(item feed.Item) string {
	if len(item.Tags) == 0 {
		return uncategorized
	}
	return item.Tags[0]
}
