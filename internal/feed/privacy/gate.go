// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package privacy gates personalization behind the user's tracking
// consent. It is the single authority the rest of the engine consults
// before touching personalization data: callers decide the mode once per
// request and pass the redacted profile downstream.
package privacy

import "github.com/weftworks/weft/internal/feed"

// Mode is the personalization level a request is allowed to use.
type Mode int

const (
	// ModeFull runs the scorer with the complete signal profile.
	ModeFull Mode = iota
	// ModeDegraded runs the scorer with aggregate, anonymized signal only.
	ModeDegraded
	// ModeDisabled forbids invoking the scorer at all; selection must fall
	// back to cold start, and no per-user interaction data may appear in
	// output annotations.
	ModeDisabled
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeDegraded:
		return "degraded"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ModeFor maps a tracking level to the allowed personalization mode.
// Pure mapping, no state. Unrecognized levels disable personalization.
func ModeFor(level feed.TrackingLevel) Mode {
	switch level {
	case feed.TrackingFull:
		return ModeFull
	case feed.TrackingLimited:
		return ModeDegraded
	default:
		return ModeDisabled
	}
}

// Redact returns a copy of the profile stripped to what the mode permits.
//
//   - ModeFull: unchanged.
//   - ModeDegraded: per-user author affinity removed; the population
//     average stands in for it. Aggregate fields survive.
//   - ModeDisabled: everything removed except the recency anchor, which
//     carries no user signal.
func Redact(profile feed.SignalProfile, mode Mode) feed.SignalProfile {
	switch mode {
	case ModeFull:
		return profile
	case ModeDegraded:
		return feed.SignalProfile{
			PopulationAffinity: profile.PopulationAffinity,
			InteractionCount:   profile.InteractionCount,
			Now:                profile.Now,
		}
	default:
		return feed.SignalProfile{Now: profile.Now}
	}
}
