// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/testutil"
)

func TestDeclareCandidacy(t *testing.T) {
	env := newTestEnv(t)
	handler := NewCandidateHandler(env.engine, env.cfg)
	el := env.openElection(t, phase.Declaration)

	hopeful, _ := testutil.CreateTestAgent(t, env.store, "hopeful", testutil.AgentOptions{})
	drafter, _ := testutil.CreateTestAgent(t, env.store, "drafter", testutil.AgentOptions{})
	voterOnly, _ := testutil.CreateTestAgent(t, env.store, "voter-only", testutil.AgentOptions{NotCandidate: true})

	platform := models.Platform{
		Manifesto: "Open coordination for every agent",
		Positions: models.Positions{Security: "audit everything"},
	}

	tests := []struct {
		name           string
		agent          models.Agent
		requestBody    interface{}
		expectedStatus int
	}{
		{"valid declaration", hopeful, models.DeclareCandidacyRequest{Platform: platform}, http.StatusCreated},
		{"duplicate declaration", hopeful, models.DeclareCandidacyRequest{Platform: platform}, http.StatusConflict},
		{"below candidate bar", voterOnly, models.DeclareCandidacyRequest{Platform: platform}, http.StatusForbidden},
		{"missing manifesto", drafter, models.DeclareCandidacyRequest{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/candidates", tt.requestBody, nil), tt.agent)
			w := serve(handler.Declare, req, "id", el.ID)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	w := serve(handler.List, testutil.MakeRequest("GET", "/elections/"+el.ID+"/candidates", nil, nil), "id", el.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var list struct {
		Candidates []models.Candidate `json:"candidates"`
	}
	testutil.AssertJSON(t, w, &list)
	if len(list.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(list.Candidates))
	}
	if list.Candidates[0].Status != models.CandidatePending {
		t.Errorf("Expected pending status, got %s", list.Candidates[0].Status)
	}
}

func TestDeclareOutsideDeclaration(t *testing.T) {
	env := newTestEnv(t)
	handler := NewCandidateHandler(env.engine, env.cfg)
	el := env.openElection(t, phase.Campaign)
	late, _ := testutil.CreateTestAgent(t, env.store, "late", testutil.AgentOptions{})

	body := models.DeclareCandidacyRequest{Platform: models.Platform{Manifesto: "better late"}}
	req := asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/candidates", body, nil), late)
	w := serve(handler.Declare, req, "id", el.ID)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestEndorseCandidate(t *testing.T) {
	env := newTestEnv(t)
	handler := NewCandidateHandler(env.engine, env.cfg)
	el := env.openElection(t, phase.Declaration)

	candAgent, _ := testutil.CreateTestAgent(t, env.store, "candidate", testutil.AgentOptions{})
	supporter, _ := testutil.CreateTestAgent(t, env.store, "supporter", testutil.AgentOptions{NotCandidate: true})

	c, err := env.engine.Declare(t.Context(), el.ID, candAgent.ID, models.Platform{Manifesto: "steady hands"})
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}

	endorse := func(a models.Agent) int {
		req := asAgent(testutil.MakeRequest("POST", "/candidates/"+c.ID+"/endorse", nil, nil), a)
		return serve(handler.Endorse, req, "id", c.ID).Code
	}

	if code := endorse(supporter); code != http.StatusCreated {
		t.Errorf("Expected 201 for first endorsement, got %d", code)
	}
	if code := endorse(supporter); code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate endorsement, got %d", code)
	}
	if code := endorse(candAgent); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for self endorsement, got %d", code)
	}

	req := asAgent(testutil.MakeRequest("POST", "/candidates/missing/endorse", nil, nil), supporter)
	testutil.AssertStatus(t, serve(handler.Endorse, req, "id", "missing"), http.StatusNotFound)

	w := serve(handler.Get, testutil.MakeRequest("GET", "/candidates/"+c.ID, nil, nil), "id", c.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var detail candidateDetail
	testutil.AssertJSON(t, w, &detail)
	if detail.Candidate.Status != models.CandidateQualified {
		t.Errorf("Expected qualified after reaching threshold, got %s", detail.Candidate.Status)
	}
	if len(detail.Endorsements) != 1 || detail.Endorsements[0].VoterAgentID != supporter.ID {
		t.Errorf("Expected one endorsement from supporter, got %+v", detail.Endorsements)
	}
}
