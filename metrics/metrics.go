// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus collectors for draws.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for DrawsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the collectors and the registry they are registered with.
// A fresh registry per instance keeps tests independent of global state.
type Metrics struct {
	Registry *prometheus.Registry

	DrawsTotal       *prometheus.CounterVec
	DrawDuration     *prometheus.HistogramVec
	DrawParticipants prometheus.Histogram
	DrawsClosed      prometheus.Counter
	EntriesTotal     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		DrawsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hashdraw",
			Name:      "draws_total",
			Help:      "Draw computations by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		DrawDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hashdraw",
			Name:      "draw_duration_seconds",
			Help:      "Time spent ranking participants.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"algorithm"}),
		DrawParticipants: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hashdraw",
			Name:      "draw_participants",
			Help:      "Number of participants per successful draw.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		DrawsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hashdraw",
			Name:      "draws_closed_total",
			Help:      "Committed draws whose seed has been revealed.",
		}),
		EntriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hashdraw",
			Name:      "entries_total",
			Help:      "Self-service entries accepted into open draws.",
		}),
	}

	reg.MustRegister(
		m.DrawsTotal,
		m.DrawDuration,
		m.DrawParticipants,
		m.DrawsClosed,
		m.EntriesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveDraw records one engine call.
func (m *Metrics) ObserveDraw(algorithm, outcome string, participants int, elapsed time.Duration) {
	m.DrawsTotal.WithLabelValues(algorithm, outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	m.DrawDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	m.DrawParticipants.Observe(float64(participants))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
