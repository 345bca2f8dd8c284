// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package merge interleaves scored or curated items into a real
// chronological sequence without breaking its ordering guarantee.
//
// # Gap Model
//
// A feed of n real items has n+1 gaps, indexed by how many real items
// precede them: gap 0 is the virtual gap above the newest item, gap n the
// virtual gap below the oldest. Every strategy picks gaps; the merger
// assigns each injected item a synthesized timestamp strictly between its
// neighbors (or epsilon-adjacent to a boundary), so the output is strictly
// descending with no re-sort needed. That invariant is the point of this
// package: violating it breaks every client that assumes home feeds are
// chronological.
//
// # Failure
//
// An unknown strategy type is the only hard error. Empty inputs, zero
// budgets and unsatisfiable gap constraints all degrade to a smaller or
// unchanged output; partial injection is a normal outcome.
package merge

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/weftworks/weft/internal/feed"
)

// boundaryEpsilon spaces synthesized timestamps outside the first or last
// real item.
const boundaryEpsilon = time.Minute

// placement is one injection decision: which item goes into which gap,
// and why.
type placement struct {
	item        feed.Item
	gap         int
	explanation string
}

// Merge interleaves injectable items into the real sequence under the
// given strategy. Both inputs may arrive in any order; they are sorted
// newest-first before merging and are never mutated. The returned
// sequence is strictly descending by timestamp, with every injected item
// annotated. The realized injection count may be smaller than the budget
// when gap constraints cannot be satisfied.
func Merge(real, injectable []feed.Item, s Strategy) ([]feed.Item, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	realSorted := sortedCopy(real)
	pool := sortedCopy(injectable)

	if s.ShuffleInjectable {
		seed := s.Seed
		if seed == 0 {
			seed = DefaultSeed
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}

	k := s.budget(len(pool))
	if k == 0 {
		return realSorted, nil
	}

	if len(realSorted) == 0 {
		// No anchors. tag_match has nothing to match against; the other
		// strategies fall back to the truncated pool on its own timeline.
		if s.Type == TagMatch {
			return realSorted, nil
		}
		return standalonePool(pool[:k], s), nil
	}

	var placements []placement
	switch s.Type {
	case Uniform:
		placements = placeUniform(realSorted, pool, k, s)
	case AfterN:
		placements = placeAfterN(realSorted, pool, k, s)
	case FirstOnly:
		placements = placeFirstOnly(realSorted, pool, k, s)
	case TagMatch:
		placements = placeTagMatch(realSorted, pool, k, s)
	}

	return weave(realSorted, placements, s), nil
}

// sortedCopy clones a sequence and sorts it newest first.
func sortedCopy(items []feed.Item) []feed.Item {
	out := make([]feed.Item, len(items))
	copy(out, items)
	feed.SortChronological(out)
	return out
}

// gapEligible reports whether gap p can accept an injection under the
// strategy's minimum-gap rule. Boundary gaps are always eligible; an
// interior gap must span at least the minimum, and must be wider than
// zero regardless, because strict betweenness is impossible in a
// zero-width gap.
func gapEligible(real []feed.Item, p int, s Strategy) bool {
	if p <= 0 || p >= len(real) {
		return true
	}
	span := real[p-1].CreatedAt.Sub(real[p].CreatedAt)
	if span <= 0 {
		return false
	}
	return span >= time.Duration(s.MinGapMinutes)*time.Minute
}

// placeUniform spreads k injections across the feed with proportional
// gap-index placement: position i lands at round(i*n/(k+1)) for a feed of
// n real items. Ineligible gaps are skipped, reducing the realized count.
func placeUniform(real, pool []feed.Item, k int, s Strategy) []placement {
	n := len(real)
	var out []placement
	next := 0
	for i := 1; i <= k && next < len(pool); i++ {
		p := int(math.Round(float64(i) * float64(n) / float64(k+1)))
		if !gapEligible(real, p, s) {
			continue
		}
		out = append(out, placement{
			item:        pool[next],
			gap:         p,
			explanation: "blended into your timeline",
		})
		next++
	}
	return out
}

// placeAfterN fills the gaps after every n-th real item, in order, until
// the budget is spent.
func placeAfterN(real, pool []feed.Item, k int, s Strategy) []placement {
	n := s.interval()
	var out []placement
	next := 0
	for p := n; p <= len(real) && next < len(pool) && len(out) < k; p += n {
		if !gapEligible(real, p, s) {
			continue
		}
		out = append(out, placement{
			item:        pool[next],
			gap:         p,
			explanation: fmt.Sprintf("placed after every %d posts", n),
		})
		next++
	}
	return out
}

// placeFirstOnly fills the gaps after each of the first ten real items,
// in order.
func placeFirstOnly(real, pool []feed.Item, k int, s Strategy) []placement {
	limit := firstOnlyWindow
	if limit > len(real) {
		limit = len(real)
	}
	var out []placement
	next := 0
	for p := 1; p <= limit && next < len(pool) && len(out) < k; p++ {
		if !gapEligible(real, p, s) {
			continue
		}
		out = append(out, placement{
			item:        pool[next],
			gap:         p,
			explanation: "placed near the top of your timeline",
		})
		next++
	}
	return out
}

// placeTagMatch walks the real items in order and, for each eligible gap,
// consumes the best-scoring not-yet-used candidate sharing a tag with the
// anchoring real item. Unscored pools consume the first match instead.
// Pool bookkeeping is an index set local to this call; the inputs stay
// untouched.
func placeTagMatch(real, pool []feed.Item, k int, s Strategy) []placement {
	used := make([]bool, len(pool))
	var out []placement
	for p := 1; p <= len(real) && len(out) < k; p++ {
		if !gapEligible(real, p, s) {
			continue
		}
		anchor := real[p-1]
		best := -1
		for idx, cand := range pool {
			if used[idx] || !cand.SharesTag(anchor) {
				continue
			}
			if best < 0 || score(cand) > score(pool[best]) {
				best = idx
			}
		}
		if best < 0 {
			continue
		}
		used[best] = true
		out = append(out, placement{
			item:        pool[best],
			gap:         p,
			explanation: fmt.Sprintf("shares the #%s tag with a nearby post", sharedTag(anchor, pool[best])),
		})
	}
	return out
}

// score reads an item's score annotation; unscored items rank below any
// scored one.
func score(item feed.Item) float64 {
	if item.Score == nil {
		return -1
	}
	return *item.Score
}

// sharedTag returns the first tag the candidate shares with the anchor.
func sharedTag(anchor, cand feed.Item) string {
	for _, t := range cand.Tags {
		if anchor.HasTag(t) {
			return t
		}
	}
	return ""
}

// weave assembles the final sequence: for each gap, the injected items
// with harmonized timestamps, then the next real item.
func weave(real []feed.Item, placements []placement, s Strategy) []feed.Item {
	byGap := make(map[int][]placement, len(placements))
	for _, pl := range placements {
		byGap[pl.gap] = append(byGap[pl.gap], pl)
	}

	out := make([]feed.Item, 0, len(real)+len(placements))
	for p := 0; p <= len(real); p++ {
		out = append(out, harmonize(real, p, byGap[p], s)...)
		if p < len(real) {
			out = append(out, real[p])
		}
	}
	return out
}

// harmonize assigns synthesized timestamps to the items placed in gap p
// and returns them annotated, newest first. Interior gaps divide the span
// proportionally, which keeps every synthesized timestamp strictly
// between the neighbors; single items land on the midpoint. Boundary gaps
// step away from the edge in epsilon increments. If an interior gap is
// too narrow to give every item a distinct timestamp, the overflow is
// dropped rather than the ordering broken.
func harmonize(real []feed.Item, p int, placed []placement, s Strategy) []feed.Item {
	if len(placed) == 0 {
		return nil
	}

	out := make([]feed.Item, 0, len(placed))
	switch {
	case len(real) == 0:
		// Unreachable from Merge, which handles the empty feed earlier.
		return nil
	case p == 0:
		newest := real[0].CreatedAt
		for j, pl := range placed {
			out = append(out, annotate(pl, newest.Add(time.Duration(len(placed)-j)*boundaryEpsilon), s))
		}
	case p == len(real):
		oldest := real[len(real)-1].CreatedAt
		for j, pl := range placed {
			out = append(out, annotate(pl, oldest.Add(-time.Duration(j+1)*boundaryEpsilon), s))
		}
	default:
		after := real[p-1].CreatedAt
		span := after.Sub(real[p].CreatedAt)
		fit := int(span) - 1 // distinct nanoseconds strictly inside the gap
		m := len(placed)
		if m > fit {
			m = fit
		}
		for j := 0; j < m; j++ {
			offset := span * time.Duration(j+1) / time.Duration(m+1)
			if offset == 0 {
				offset = 1
			}
			out = append(out, annotate(placed[j], after.Add(-offset), s))
		}
	}
	return out
}

// standalonePool annotates the truncated pool as the whole output when
// there are no real items to interleave with.
func standalonePool(pool []feed.Item, s Strategy) []feed.Item {
	out := make([]feed.Item, 0, len(pool))
	for _, item := range pool {
		out = append(out, annotate(placement{item: item, explanation: "nothing else to show yet"}, item.CreatedAt, s))
	}
	feed.SortChronological(out)
	return out
}

// annotate stamps one injected item. Metadata set upstream survives:
// a cold start source and explanation are kept, only filled in when
// absent.
func annotate(pl placement, ts time.Time, s Strategy) feed.Item {
	item := pl.item
	item.CreatedAt = ts
	item.Injected = true

	meta := feed.InjectionMeta{Source: "ranked", Explanation: pl.explanation, Score: score(item)}
	if item.Score == nil {
		meta.Score = 0
	}
	if item.Injection != nil {
		if item.Injection.Source != "" {
			meta.Source = item.Injection.Source
		}
		if item.Injection.Explanation != "" {
			meta.Explanation = item.Injection.Explanation
		}
	}
	meta.Strategy = string(s.Type)
	item.Injection = &meta
	return item
}
