// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/middleware"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
)

type ElectionHandler struct {
	engine *election.Engine
	cfg    cliparse.Config
}

func NewElectionHandler(engine *election.Engine, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{engine: engine, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	params := election.CreateElectionParams{
		Title:                req.Title,
		Shape:                phase.Shape(req.Shape),
		TopNAdvance:          req.TopNAdvance,
		EndorsementThreshold: req.EndorsementThreshold,
		WeightedTally:        h.cfg.WeightedTally,
	}
	if req.StartsAt != nil {
		params.StartsAt = *req.StartsAt
	}
	if req.WeightedTally != nil {
		params.WeightedTally = *req.WeightedTally
	}
	if len(req.DurationsHours) > 0 {
		params.Durations = make(map[string]time.Duration, len(req.DurationsHours))
		for name, hours := range req.DurationsHours {
			params.Durations[name] = time.Duration(hours) * time.Hour
		}
	}

	el, err := h.engine.CreateElection(r.Context(), params)
	if err != nil {
		writeEngineError(w, "create election", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, el)
}

// AdvanceElection handles POST /elections/{id}/advance
// Forces the next phase transition regardless of the schedule.
func (h *ElectionHandler) AdvanceElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	el, err := h.engine.Advance(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "advance election", err)
		return
	}

	slog.Info("election advanced by admin", "election_id", el.ID, "phase", el.Phase)
	middleware.JSONResponse(w, http.StatusOK, el)
}

// GetCurrent handles GET /elections/current
func (h *ElectionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	el, err := h.engine.CurrentElection(r.Context())
	if err != nil {
		writeEngineError(w, "current election", err)
		return
	}
	h.writeStatus(w, r, el.ID)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}
	h.writeStatus(w, r, electionID)
}

func (h *ElectionHandler) writeStatus(w http.ResponseWriter, r *http.Request, electionID string) {
	status, err := h.engine.Status(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "election status", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, status)
}
