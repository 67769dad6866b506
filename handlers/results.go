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

type ResultsHandler struct {
	engine *election.Engine
	cfg    cliparse.Config
}

func NewResultsHandler(engine *election.Engine, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{engine: engine, cfg: cfg}
}

type primaryResultsResponse struct {
	Standings []models.PrimaryResult `json:"standings"`
	Snapshot  *models.ResultSnapshot `json:"snapshot"`
}

// GetResults handles GET /elections/{id}/results
// Results are sealed until the election reaches tallying.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	resp, err := h.engine.Results(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "results", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetAudit handles GET /elections/{id}/audit
func (h *ResultsHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	entries, err := h.engine.Audit(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "audit", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"election_id": electionID,
		"entries":     entries,
	})
}

// GetPrimaryResults handles GET /elections/{id}/primary-results
func (h *ResultsHandler) GetPrimaryResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	standings, snap, err := h.engine.PrimaryResults(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "primary results", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, primaryResultsResponse{Standings: standings, Snapshot: snap})
}
