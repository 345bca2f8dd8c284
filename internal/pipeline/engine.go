// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package pipeline wires the feed subsystems into one request path.
// The Engine takes a reader's chronological timeline and a candidate
// pool, applies the privacy gate, ranks or cold-start-selects the
// candidates, and merges the winners into the timeline.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/feed"
	"github.com/weftworks/weft/internal/feed/coldstart"
	"github.com/weftworks/weft/internal/feed/merge"
	"github.com/weftworks/weft/internal/feed/privacy"
	"github.com/weftworks/weft/internal/feed/scoring"
	"github.com/weftworks/weft/internal/feed/snapshot"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/internal/metrics"
)

// Engine blends injectable candidates into chronological timelines.
// It is safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	scorer   feed.Scorer
	selector *coldstart.Selector
	snaps    *snapshot.Store
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithScorer replaces the default weight model, mainly for tests.
func WithScorer(s feed.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithMetrics attaches a metrics bundle. Without one the engine runs
// unobserved.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger overrides the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an Engine from the given configuration.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: nil config")
	}

	var selectorOpts []coldstart.Option
	if cfg.ColdStart.Shuffle {
		selectorOpts = append(selectorOpts, coldstart.WithShuffle(cfg.ColdStart.Seed))
	}

	e := &Engine{
		cfg:      cfg,
		selector: coldstart.NewSelector(selectorOpts...),
		snaps:    snapshot.NewStore(cfg.Ranking.SnapshotTTL),
		log:      logging.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.scorer == nil {
		model, err := scoring.NewModel(cfg.Weights)
		if err != nil {
			return nil, err
		}
		e.scorer = model
	}

	return e, nil
}

// Request carries one blend invocation. Real and Pool are never
// mutated.
type Request struct {
	// UserID identifies the reader, keying snapshot reuse.
	UserID string

	// Real is the reader's chronological home timeline.
	Real []feed.Item

	// Pool holds the injectable candidates.
	Pool []feed.Item

	// Profile is the reader's signal aggregate, pre-redaction.
	Profile feed.SignalProfile

	// Tracking is the reader's consent level.
	Tracking feed.TrackingLevel

	// Strategy overrides the configured placement strategy when set.
	Strategy *merge.Strategy

	// Inject disables blending entirely when false; the timeline is
	// returned untouched apart from chronological ordering.
	Inject bool
}

// Response is the outcome of one blend.
type Response struct {
	// RequestID correlates log lines with this response.
	RequestID string

	// Items is the merged timeline, newest first.
	Items []feed.Item

	// Injected counts the items added to the timeline.
	Injected int

	// Shortfall counts budgeted injections dropped by gap constraints.
	Shortfall int

	// Mode is the personalization mode after the privacy gate.
	Mode privacy.Mode

	// ColdStart reports whether candidates came from the cold start
	// selector instead of the ranking model.
	ColdStart bool
}

// Blend merges ranked or curated candidates into the reader's timeline
// according to the active strategy and the reader's tracking consent.
func (e *Engine) Blend(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := e.log.With().
		Str("request_id", requestID).
		Str("user_id", req.UserID).
		Logger()

	if err := ctx.Err(); err != nil {
		return Response{RequestID: requestID}, err
	}

	mode := privacy.ModeFor(req.Tracking)
	if e.metrics != nil {
		e.metrics.BlendRequests.WithLabelValues(mode.String()).Inc()
		defer func() {
			e.metrics.BlendDuration.Observe(time.Since(start).Seconds())
		}()
	}

	strategy, err := e.strategyFor(req)
	if err != nil {
		return Response{RequestID: requestID, Mode: mode}, err
	}

	if !req.Inject || len(req.Pool) == 0 {
		log.Debug().Bool("inject", req.Inject).Int("pool", len(req.Pool)).
			Msg("passthrough, nothing to blend")
		return Response{
			RequestID: requestID,
			Items:     chronological(req.Real),
			Mode:      mode,
		}, nil
	}

	profile := privacy.Redact(req.Profile, mode)
	injectable, coldStart := e.candidates(req.UserID, req.Pool, profile, mode, log)

	merged, err := merge.Merge(req.Real, injectable, strategy)
	if err != nil {
		return Response{RequestID: requestID, Mode: mode}, err
	}

	injected := e.recordInjections(merged, strategy)
	shortfall := expected(strategy, len(injectable)) - injected
	if shortfall > 0 && e.metrics != nil {
		e.metrics.InjectionShortfall.WithLabelValues(string(strategy.Type)).
			Add(float64(shortfall))
	}

	log.Info().
		Str("mode", mode.String()).
		Str("strategy", string(strategy.Type)).
		Bool("cold_start", coldStart).
		Int("real", len(req.Real)).
		Int("injected", injected).
		Int("shortfall", shortfall).
		Dur("elapsed", time.Since(start)).
		Msg("timeline blended")

	return Response{
		RequestID: requestID,
		Items:     merged,
		Injected:  injected,
		Shortfall: shortfall,
		Mode:      mode,
		ColdStart: coldStart,
	}, nil
}

// InvalidateSnapshot drops the stored ranking for a reader, forcing the
// next blend to rescore. Call it when the reader's signals change.
func (e *Engine) InvalidateSnapshot(userID string) {
	e.snaps.Invalidate(userID)
}

func (e *Engine) strategyFor(req Request) (merge.Strategy, error) {
	if req.Strategy != nil {
		return *req.Strategy, nil
	}
	return e.cfg.Strategy.ToStrategy()
}

// candidates picks the injectable slate. Readers without usable signal,
// with too little history, or outside full-tracking consent fall back
// to the cold start selector; the scoring model is never consulted for
// them.
func (e *Engine) candidates(userID string, pool []feed.Item, profile feed.SignalProfile, mode privacy.Mode, log zerolog.Logger) ([]feed.Item, bool) {
	personalized := mode != privacy.ModeDisabled &&
		profile.InteractionCount >= e.cfg.Ranking.MinInteractions &&
		(profile.HasSignal() || mode == privacy.ModeDegraded)

	if !personalized {
		if !e.cfg.ColdStart.Enabled {
			log.Debug().Msg("cold start disabled, no candidates")
			return nil, false
		}
		picks := e.selector.Select(pool, e.cfg.ColdStart.Limit, e.cfg.ColdStart.Diversify)
		log.Debug().Int("picks", len(picks)).Msg("cold start selection")
		return picks, true
	}

	ranked := e.rank(userID, pool, profile, log)
	if limit := e.cfg.Ranking.MaxCandidates; limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, false
}

// rank scores the pool, reusing a fresh snapshot when one exists.
// Snapshot misses rescore everything and store the result; items absent
// from a hit snapshot are scored on the spot but not persisted.
func (e *Engine) rank(userID string, pool []feed.Item, profile feed.SignalProfile, log zerolog.Logger) []feed.Item {
	var cached map[string]float64
	if snap, ok := e.snaps.Get(userID); ok {
		cached = snap.Scores
	}
	if e.metrics != nil {
		e.metrics.ObserveSnapshot(cached != nil)
	}

	ranked := make([]feed.Item, len(pool))
	scores := make(map[string]float64, len(pool))
	for i, item := range pool {
		s, ok := cached[item.ID]
		if !ok {
			s = e.scorer.Score(item, profile)
		}
		scores[item.ID] = s
		item.Score = &s
		ranked[i] = item
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := *ranked[i].Score, *ranked[j].Score
		if si != sj {
			return si > sj
		}
		return ranked[i].ID < ranked[j].ID
	})

	if cached == nil {
		if err := e.snaps.Put(userID, scores); err != nil {
			log.Warn().Err(err).Msg("snapshot store failed")
		}
	}
	return ranked
}

// recordInjections counts injected items and feeds the per-source
// counters.
func (e *Engine) recordInjections(items []feed.Item, s merge.Strategy) int {
	injected := 0
	for _, item := range items {
		if !item.Injected {
			continue
		}
		injected++
		if e.metrics != nil && item.Injection != nil {
			e.metrics.Injections.
				WithLabelValues(string(s.Type), item.Injection.Source).Inc()
		}
	}
	return injected
}

// expected is the number of injections the strategy budgeted for the
// given pool size.
func expected(s merge.Strategy, poolSize int) int {
	if s.MaxInjections >= 0 && s.MaxInjections < poolSize {
		return s.MaxInjections
	}
	return poolSize
}

// chronological returns a newest-first copy of items.
func chronological(items []feed.Item) []feed.Item {
	out := make([]feed.Item, len(items))
	copy(out, items)
	feed.SortChronological(out)
	return out
}
