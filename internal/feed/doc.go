// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package feed defines the data model shared by the injection engine.
//
// # Architecture
//
// Weft sits between a social client and an upstream content server and
// blends ranked or curated items into a user's chronological home feed
// without breaking its ordering guarantees. The model here is consumed by
// four leaf packages and one orchestrator:
//
//   - scoring: weighted relevance scoring of candidate items
//   - coldstart: diversified selection when no personalization signal exists
//   - privacy: tracking-consent gating of personalization
//   - merge: chronology-preserving interleaving of real and injected items
//   - pipeline: per-request orchestration of the above
//
// # Item Lifecycle
//
// Items are created by collaborators (the upstream proxy or a curated pool)
// and live for the duration of one blend request. The engine never persists
// them; it only sets the mutable annotations Score, Injected and Injection,
// each at most once per item per request. Everything else on an Item is
// treated as immutable.
//
// # Thread Safety
//
// All operations over these types are pure with respect to shared memory:
// each call reads its inputs and returns fresh slices. Concurrent blend
// requests with different inputs never interact.
package feed
