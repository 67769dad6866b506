// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/agent-election/ballot"
	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/middleware"
	"github.com/danielhkuo/agent-election/models"
)

type VotingHandler struct {
	engine *election.Engine
	cfg    cliparse.Config
}

func NewVotingHandler(engine *election.Engine, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{engine: engine, cfg: cfg}
}

// EvaluationPacket handles GET /elections/{id}/evaluation-packet
// Issues the caller's single-use nonce along with the candidate roster.
func (h *VotingHandler) EvaluationPacket(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	packet, err := h.engine.EvaluationPacket(r.Context(), electionID, agentID)
	if err != nil {
		writeEngineError(w, "evaluation packet", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, packet)
}

// Commit handles POST /elections/{id}/commit
func (h *VotingHandler) Commit(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	var req models.CommitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.CommitmentHash == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "commitment_hash is required")
		return
	}
	if req.Nonce == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "nonce is required")
		return
	}

	resp, err := h.engine.Commit(r.Context(), electionID, agentID, req.CommitmentHash, req.Nonce)
	if err != nil {
		writeEngineError(w, "commit vote", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// Reveal handles POST /elections/{id}/reveal
func (h *VotingHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	var req models.RevealRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.engine.Reveal(r.Context(), electionID, agentID, ballot.Payload(req.VoteData), req.Nonce)
	if err != nil {
		writeEngineError(w, "reveal vote", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// VoterRoll handles GET /elections/{id}/voter-roll
// Lists who has committed without exposing any ballot contents.
func (h *VotingHandler) VoterRoll(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	roll, err := h.engine.VoterRoll(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, "voter roll", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"voters": roll,
		"count":  len(roll),
	})
}
