// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

package snapshot

import (
	"testing"
	"time"
)

// --- Test: Put / Get ---

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Minute)
	scores := map[string]float64{"item-1": 0.9, "item-2": 0.4}

	if err := s.Put("alice", scores); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	snap, ok := s.Get("alice")
	if !ok {
		t.Fatal("Get() miss after Put()")
	}
	if snap.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", snap.UserID)
	}
	if snap.Scores["item-1"] != 0.9 || snap.Scores["item-2"] != 0.4 {
		t.Errorf("Scores = %v, want originals", snap.Scores)
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestStore_MissForUnknownUser(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Minute)
	if _, ok := s.Get("nobody"); ok {
		t.Error("Get(nobody) hit, want miss")
	}
}

// --- Test: freshness window ---

func TestStore_ExpiresAfterFreshnessWindow(t *testing.T) {
	t.Parallel()

	s := NewStore(10 * time.Millisecond)
	if err := s.Put("alice", map[string]float64{"x": 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok := s.Get("alice"); ok {
		t.Error("snapshot still fresh past its window")
	}
}

// --- Test: last writer wins ---

func TestStore_LastWriterWins(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Minute)
	if err := s.Put("alice", map[string]float64{"x": 0.1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put("alice", map[string]float64{"x": 0.8}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	snap, ok := s.Get("alice")
	if !ok {
		t.Fatal("Get() miss")
	}
	if snap.Scores["x"] != 0.8 {
		t.Errorf("Scores[x] = %g, want the later write 0.8", snap.Scores["x"])
	}
}

// --- Test: Invalidate ---

func TestStore_Invalidate(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Minute)
	if err := s.Put("alice", map[string]float64{"x": 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	s.Invalidate("alice")

	if _, ok := s.Get("alice"); ok {
		t.Error("snapshot survived Invalidate")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}
