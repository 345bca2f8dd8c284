// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/weftworks/weft/internal/feed"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testProfile() feed.SignalProfile {
	return feed.SignalProfile{
		AuthorAffinity: map[string]float64{
			"alice": 10,
			"bob":   5,
		},
		Now: testNow,
	}
}

// --- Test: WeightConfig.Normalize ---

func TestWeightConfig_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      WeightConfig
		want    WeightConfig
		wantErr bool
	}{
		{
			name: "already normalized within tolerance",
			in:   WeightConfig{Author: 0.4, Engagement: 0.3, Recency: 0.3 + 1e-9},
			want: WeightConfig{Author: 0.4, Engagement: 0.3, Recency: 0.3 + 1e-9},
		},
		{
			name: "rescales to unit sum",
			in:   WeightConfig{Author: 2, Engagement: 1, Recency: 1},
			want: WeightConfig{Author: 0.5, Engagement: 0.25, Recency: 0.25},
		},
		{
			name: "all zero becomes equal thirds",
			in:   WeightConfig{},
			want: WeightConfig{Author: 1.0 / 3, Engagement: 1.0 / 3, Recency: 1.0 / 3},
		},
		{
			name:    "negative weight rejected",
			in:      WeightConfig{Author: -0.1, Engagement: 0.6, Recency: 0.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.in.Normalize()

			if tt.wantErr {
				if !errors.Is(err, feed.ErrInvalidWeightConfig) {
					t.Fatalf("Normalize() error = %v, want ErrInvalidWeightConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}

			const eps = 1e-12
			if math.Abs(got.Author-tt.want.Author) > eps ||
				math.Abs(got.Engagement-tt.want.Engagement) > eps ||
				math.Abs(got.Recency-tt.want.Recency) > eps {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// --- Test: NewModel ---

func TestNewModel_RejectsNegativeWeight(t *testing.T) {
	t.Parallel()

	_, err := NewModel(WeightConfig{Author: 0.5, Engagement: -1, Recency: 0.5})
	if !errors.Is(err, feed.ErrInvalidWeightConfig) {
		t.Fatalf("NewModel() error = %v, want ErrInvalidWeightConfig", err)
	}
}

func TestNewModel_DefaultsDecayWindow(t *testing.T) {
	t.Parallel()

	m, err := NewModel(WeightConfig{Author: 1, Engagement: 1, Recency: 1})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	if m.Weights().DecayDays != DefaultWeights().DecayDays {
		t.Errorf("DecayDays = %g, want default %g", m.Weights().DecayDays, DefaultWeights().DecayDays)
	}
}

// --- Test: Score bounds and terms ---

func TestModel_ScoreBounds(t *testing.T) {
	t.Parallel()

	m, err := NewModel(DefaultWeights())
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	items := []feed.Item{
		{ID: "fresh-loved", AuthorID: "alice", CreatedAt: testNow, Engagement: feed.Engagement{Replies: 100, Boosts: 200, Favorites: 500}},
		{ID: "stale-ignored", AuthorID: "nobody", CreatedAt: testNow.AddDate(-1, 0, 0)},
		{ID: "zero", CreatedAt: testNow},
	}

	for _, item := range items {
		s := m.Score(item, testProfile())
		if s < 0 || s > 1 {
			t.Errorf("Score(%s) = %g, want within [0,1]", item.ID, s)
		}
	}
}

func TestModel_UnknownAuthorScoresZeroAffinity(t *testing.T) {
	t.Parallel()

	// Isolate the author term.
	m, err := NewModel(WeightConfig{Author: 1, DecayDays: 2})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	known := m.Score(feed.Item{ID: "k", AuthorID: "alice", CreatedAt: testNow}, testProfile())
	unknown := m.Score(feed.Item{ID: "u", AuthorID: "stranger", CreatedAt: testNow}, testProfile())

	if known != 1 {
		t.Errorf("top-affinity author score = %g, want 1", known)
	}
	if unknown != 0 {
		t.Errorf("unknown author score = %g, want 0", unknown)
	}
}

func TestModel_PopulationAverageWithoutAffinity(t *testing.T) {
	t.Parallel()

	m, err := NewModel(WeightConfig{Author: 1, DecayDays: 2})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	profile := feed.SignalProfile{PopulationAffinity: 0.25, Now: testNow}
	got := m.Score(feed.Item{ID: "x", AuthorID: "whoever", CreatedAt: testNow}, profile)
	if got != 0.25 {
		t.Errorf("degraded author term = %g, want population average 0.25", got)
	}
}

func TestEngagementTerm_MonotonicAndSaturating(t *testing.T) {
	t.Parallel()

	prev := engagementTerm(feed.Engagement{})
	if prev != 0 {
		t.Fatalf("engagementTerm(zero) = %g, want 0", prev)
	}

	for _, favs := range []int{1, 10, 100, 1000, 100000} {
		cur := engagementTerm(feed.Engagement{Favorites: favs})
		if cur <= prev {
			t.Errorf("engagementTerm not increasing at favorites=%d: %g <= %g", favs, cur, prev)
		}
		if cur >= 1 {
			t.Errorf("engagementTerm(favorites=%d) = %g, want < 1", favs, cur)
		}
		prev = cur
	}
}

func TestModel_FutureTimestampClampsRecency(t *testing.T) {
	t.Parallel()

	m, err := NewModel(WeightConfig{Recency: 1, DecayDays: 2})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	future := m.Score(feed.Item{ID: "f", CreatedAt: testNow.Add(time.Hour)}, testProfile())
	now := m.Score(feed.Item{ID: "n", CreatedAt: testNow}, testProfile())

	if future != 1 || now != 1 {
		t.Errorf("recency clamp: future = %g, now = %g, want both 1", future, now)
	}
}

func TestModel_RecencyDecays(t *testing.T) {
	t.Parallel()

	m, err := NewModel(WeightConfig{Recency: 1, DecayDays: 2})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	day := m.Score(feed.Item{ID: "d", CreatedAt: testNow.AddDate(0, 0, -1)}, testProfile())
	week := m.Score(feed.Item{ID: "w", CreatedAt: testNow.AddDate(0, 0, -7)}, testProfile())

	if !(day > week) {
		t.Errorf("recency not decaying: 1d=%g, 7d=%g", day, week)
	}
	want := math.Exp(-0.5) // one day over a two-day window
	if math.Abs(day-want) > 1e-9 {
		t.Errorf("1-day recency = %g, want %g", day, want)
	}
}

// --- Test: Rank ---

func TestRank_OrdersByScoreThenID(t *testing.T) {
	t.Parallel()

	m, err := NewModel(WeightConfig{Author: 1, DecayDays: 2})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	pool := []feed.Item{
		{ID: "c", AuthorID: "stranger", CreatedAt: testNow},
		{ID: "b", AuthorID: "stranger", CreatedAt: testNow},
		{ID: "a", AuthorID: "alice", CreatedAt: testNow},
	}

	ranked := Rank(m, pool, testProfile())

	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if ranked[i].ID != want {
			t.Fatalf("rank position %d = %q, want %q", i, ranked[i].ID, want)
		}
		if ranked[i].Score == nil {
			t.Fatalf("ranked item %q missing score annotation", ranked[i].ID)
		}
	}

	// Input must not be annotated.
	for _, item := range pool {
		if item.Score != nil {
			t.Errorf("Rank mutated input item %q", item.ID)
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	t.Parallel()

	m, err := NewModel(DefaultWeights())
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	pool := []feed.Item{
		{ID: "x", AuthorID: "bob", CreatedAt: testNow.Add(-time.Hour), Engagement: feed.Engagement{Boosts: 3}},
		{ID: "y", AuthorID: "alice", CreatedAt: testNow.Add(-2 * time.Hour)},
		{ID: "z", CreatedAt: testNow},
	}

	first := Rank(m, pool, testProfile())
	second := Rank(m, pool, testProfile())

	for i := range first {
		if first[i].ID != second[i].ID || *first[i].Score != *second[i].Score {
			t.Fatalf("Rank not deterministic at %d: %v vs %v", i, first[i], second[i])
		}
	}
}
