// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes election engine counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "election"

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	commits     *prometheus.CounterVec
	reveals     *prometheus.CounterVec
	tallies     *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Phase transitions applied, by destination phase.",
		}, []string{"phase"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commitments_total",
			Help:      "Vote commitments accepted, by stage.",
		}, []string{"stage"}),
		reveals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reveals_total",
			Help:      "Verified reveals, by stage.",
		}, []string{"stage"}),
		tallies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tallies_total",
			Help:      "Tally runs, by kind and outcome status.",
		}, []string{"kind", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected protocol operations, by operation and reason.",
		}, []string{"operation", "reason"}),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.commits, m.reveals, m.tallies, m.rejections} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewRegistry returns a registry carrying the process and Go runtime
// collectors alongside the engine metrics.
func NewRegistry() (*prometheus.Registry, *Metrics, error) {
	reg := prometheus.NewRegistry()
	err := errors.Join(
		reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
		reg.Register(collectors.NewGoCollector()),
	)
	if err != nil {
		return nil, nil, err
	}
	m, err := New(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, m, nil
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) Transition(phase string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(phase).Inc()
}

func (m *Metrics) Commit(stage string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(stageLabel(stage)).Inc()
}

func (m *Metrics) Reveal(stage string) {
	if m == nil {
		return
	}
	m.reveals.WithLabelValues(stageLabel(stage)).Inc()
}

func (m *Metrics) Tally(kind, status string) {
	if m == nil {
		return
	}
	m.tallies.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Reject(operation, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(operation, reason).Inc()
}

func stageLabel(stage string) string {
	if stage == "" {
		return "single"
	}
	return stage
}
