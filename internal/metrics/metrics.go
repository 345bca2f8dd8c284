// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package metrics exposes Prometheus instrumentation for the injection
// engine.
//
// Metrics:
//   - weft_blend_requests_total{mode}: blend requests by personalization mode
//   - weft_blend_duration_seconds: end-to-end blend latency
//   - weft_injections_total{strategy,source}: items actually injected
//   - weft_injection_shortfall_total{strategy}: budgeted injections lost
//     to gap constraints
//   - weft_snapshot_lookups_total{result}: ranking snapshot hits/misses
//
// The consuming server is expected to mount promhttp on its own /metrics
// route; this package only registers collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's collectors. Registering against a private
// registry keeps tests isolated from the default one.
type Metrics struct {
	BlendRequests      *prometheus.CounterVec
	BlendDuration      prometheus.Histogram
	Injections         *prometheus.CounterVec
	InjectionShortfall *prometheus.CounterVec
	SnapshotLookups    *prometheus.CounterVec
}

// New registers the engine collectors with the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BlendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_blend_requests_total",
			Help: "Blend requests processed, by personalization mode.",
		}, []string{"mode"}),

		BlendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "weft_blend_duration_seconds",
			Help:    "End-to-end blend latency in seconds.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		Injections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_injections_total",
			Help: "Items injected into feeds, by strategy and source.",
		}, []string{"strategy", "source"}),

		InjectionShortfall: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_injection_shortfall_total",
			Help: "Budgeted injections dropped by gap constraints, by strategy.",
		}, []string{"strategy"}),

		SnapshotLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_snapshot_lookups_total",
			Help: "Ranking snapshot lookups, by result (hit or miss).",
		}, []string{"result"}),
	}
}

// ObserveSnapshot records one snapshot lookup outcome.
func (m *Metrics) ObserveSnapshot(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SnapshotLookups.WithLabelValues(result).Inc()
}
