// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package snapshot persists per-user ranking snapshots across blend
// requests for a bounded freshness window.
//
// Scores are approximate and go stale quickly, so the store is
// deliberately loose: concurrent regenerations for the same user race
// with last-writer-wins semantics, and a miss just means the caller
// rescores. The score model itself stays pure and idempotent; this is
// the collaborator-side memo around it.
package snapshot

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"
)

// Snapshot is one user's ranked scores at a point in time.
type Snapshot struct {
	// UserID is the user the snapshot belongs to.
	UserID string `json:"user_id"`

	// Scores maps item ID to relevance score.
	Scores map[string]float64 `json:"scores"`

	// GeneratedAt is when the snapshot was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// Store holds ranking snapshots with a freshness window.
// It is safe for concurrent use.
type Store struct {
	cache     *gocache.Cache
	freshness time.Duration
}

// NewStore creates a snapshot store. Entries expire after the freshness
// window and are swept at twice that interval.
func NewStore(freshness time.Duration) *Store {
	return &Store{
		cache:     gocache.New(freshness, 2*freshness),
		freshness: freshness,
	}
}

// Put stores a user's snapshot, replacing any previous one. Later writers
// win.
func (s *Store) Put(userID string, scores map[string]float64) error {
	snap := Snapshot{
		UserID:      userID,
		Scores:      scores,
		GeneratedAt: time.Now(),
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", userID, err)
	}

	s.cache.Set(key(userID), payload, s.freshness)
	return nil
}

// Get returns a user's snapshot if one exists within the freshness
// window.
func (s *Store) Get(userID string) (Snapshot, bool) {
	raw, found := s.cache.Get(key(userID))
	if !found {
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw.([]byte), &snap); err != nil {
		// An undecodable entry is as good as a miss; drop it.
		s.cache.Delete(key(userID))
		return Snapshot{}, false
	}
	return snap, true
}

// Invalidate drops a user's snapshot, forcing the next request to
// rescore.
func (s *Store) Invalidate(userID string) {
	s.cache.Delete(key(userID))
}

// Len returns the number of live snapshots, expired entries included
// until the next sweep.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func key(userID string) string {
	return "rank:" + userID
}
