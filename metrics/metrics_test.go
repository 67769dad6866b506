// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.Transition("campaign")
	m.Transition("campaign")
	m.Commit("")
	m.Reveal("primary")
	m.Tally("general", "decided")
	m.Reject("commit", "invalid_nonce")

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("campaign")); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.commits.WithLabelValues("single")); got != 1 {
		t.Errorf("commits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reveals.WithLabelValues("primary")); got != 1 {
		t.Errorf("reveals = %v, want 1", got)
	}

	// Registering twice fails
	if _, err := New(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Transition("x")
	m.Commit("")
	m.Reveal("")
	m.Tally("general", "decided")
	m.Reject("commit", "x")
}

func TestHandler(t *testing.T) {
	reg, m, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	m.Commit("general")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `election_commitments_total{stage="general"} 1`) {
		t.Errorf("metrics output missing commitment counter:\n%s", w.Body.String())
	}
}
