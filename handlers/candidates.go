// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/middleware"
	"github.com/danielhkuo/agent-election/models"
)

type CandidateHandler struct {
	engine *election.Engine
	cfg    cliparse.Config
}

func NewCandidateHandler(engine *election.Engine, cfg cliparse.Config) *CandidateHandler {
	return &CandidateHandler{engine: engine, cfg: cfg}
}

// candidateDetail is the body of GET /candidates/{id}
type candidateDetail struct {
	Candidate    models.Candidate     `json:"candidate"`
	Endorsements []models.Endorsement `json:"endorsements"`
}

// Declare handles POST /elections/{id}/candidates
func (h *CandidateHandler) Declare(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	var req models.DeclareCandidacyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.engine.Declare(r.Context(), electionID, agentID, req.Platform)
	if err != nil {
		writeEngineError(w, "declare candidacy", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// List handles GET /elections/{id}/candidates
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	candidates, err := h.engine.ListCandidates(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "list candidates", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
	})
}

// Get handles GET /candidates/{id}
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")
	if candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate id is required")
		return
	}

	c, endorsements, err := h.engine.GetCandidate(r.Context(), candidateID)
	if err != nil {
		writeEngineError(w, "get candidate", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidateDetail{Candidate: c, Endorsements: endorsements})
}

// Endorse handles POST /candidates/{id}/endorse
func (h *CandidateHandler) Endorse(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")
	if candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate id is required")
		return
	}

	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	resp, err := h.engine.Endorse(r.Context(), candidateID, agentID)
	if err != nil {
		writeEngineError(w, "endorse candidate", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}
