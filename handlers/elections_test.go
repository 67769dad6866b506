// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/testutil"
)

func TestCreateElection(t *testing.T) {
	env := newTestEnv(t)
	handler := NewElectionHandler(env.engine, env.cfg)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, el *models.Election)
	}{
		{
			name: "valid two-tier election",
			requestBody: models.CreateElectionRequest{
				Title:          "Spring Council",
				Shape:          string(phase.ShapeTwoTier),
				TopNAdvance:    3,
				DurationsHours: map[string]int64{phase.PrimaryCampaign: 48},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, el *models.Election) {
				if el.ID == "" {
					t.Error("Expected non-empty election id")
				}
				if el.Phase != phase.Declaration {
					t.Errorf("Expected phase %s, got %s", phase.Declaration, el.Phase)
				}
				if el.TopNAdvance != 3 {
					t.Errorf("Expected top_n_advance 3, got %d", el.TopNAdvance)
				}
				w, ok := el.Schedule.Window(phase.PrimaryCampaign)
				if !ok || w.End.Sub(w.Start).Hours() != 48 {
					t.Errorf("Expected 48h primary campaign, got %+v", w)
				}
			},
		},
		{
			name:           "second live election",
			requestBody:    models.CreateElectionRequest{Title: "Another"},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing title",
			requestBody:    models.CreateElectionRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown shape",
			requestBody:    models.CreateElectionRequest{Title: "x", Shape: "three_tier"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/elections", tt.requestBody, nil)
			w := serve(handler.CreateElection, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.checkResponse != nil && w.Code == http.StatusCreated {
				var el models.Election
				testutil.AssertJSON(t, w, &el)
				tt.checkResponse(t, &el)
			}
		})
	}
}

func TestCreateElectionInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	handler := NewElectionHandler(env.engine, env.cfg)

	req := httptest.NewRequest("POST", "/elections", strings.NewReader("{not json"))
	w := serve(handler.CreateElection, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestCreateElectionWeightedDefault(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.WeightedTally = true
	handler := NewElectionHandler(env.engine, env.cfg)

	req := testutil.MakeRequest("POST", "/elections", models.CreateElectionRequest{Title: "Weighted"}, nil)
	w := serve(handler.CreateElection, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var el models.Election
	testutil.AssertJSON(t, w, &el)
	if !el.WeightedTally {
		t.Error("Expected weighted_tally to default from config")
	}
}

func TestAdvanceElection(t *testing.T) {
	env := newTestEnv(t)
	handler := NewElectionHandler(env.engine, env.cfg)
	el := env.openElection(t, phase.Declaration)

	w := serve(handler.AdvanceElection, testutil.MakeRequest("POST", "/elections/"+el.ID+"/advance", nil, nil), "id", el.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var advanced models.Election
	testutil.AssertJSON(t, w, &advanced)
	if advanced.Phase != phase.Campaign {
		t.Errorf("Expected phase %s, got %s", phase.Campaign, advanced.Phase)
	}

	w = serve(handler.AdvanceElection, testutil.MakeRequest("POST", "/elections/missing/advance", nil, nil), "id", "missing")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetElection(t *testing.T) {
	env := newTestEnv(t)
	handler := NewElectionHandler(env.engine, env.cfg)

	w := serve(handler.GetCurrent, testutil.MakeRequest("GET", "/elections/current", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	el := env.openElection(t, phase.Campaign)

	w = serve(handler.GetCurrent, testutil.MakeRequest("GET", "/elections/current", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var status models.ElectionStatusResponse
	testutil.AssertJSON(t, w, &status)
	if status.Election.ID != el.ID {
		t.Errorf("Expected current election %s, got %s", el.ID, status.Election.ID)
	}
	if status.Election.Phase != phase.Campaign {
		t.Errorf("Expected phase %s, got %s", phase.Campaign, status.Election.Phase)
	}
	if status.PhaseEnds == nil {
		t.Error("Expected phase_ends_at for a timed phase")
	}

	w = serve(handler.GetElection, testutil.MakeRequest("GET", "/elections/"+el.ID, nil, nil), "id", el.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(handler.GetElection, testutil.MakeRequest("GET", "/elections/nope", nil, nil), "id", "nope")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
