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

type AgentHandler struct {
	engine *election.Engine
	cfg    cliparse.Config
}

func NewAgentHandler(engine *election.Engine, cfg cliparse.Config) *AgentHandler {
	return &AgentHandler{engine: engine, cfg: cfg}
}

// Register handles POST /agents/register
// Registers a verified-tier agent and returns its API key once.
func (h *AgentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterAgentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.ExternalID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "external_id is required")
		return
	}

	resp, err := h.engine.RegisterAgent(r.Context(), req)
	if err != nil {
		writeEngineError(w, "register agent", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// RegisterGeneral handles POST /agents/register/general
func (h *AgentHandler) RegisterGeneral(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterGeneralRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.engine.RegisterGeneral(r.Context(), req)
	if err != nil {
		writeEngineError(w, "register general agent", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// GetMe handles GET /agents/me
func (h *AgentHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	agent, err := h.engine.GetAgent(r.Context(), agentID)
	if err != nil {
		writeEngineError(w, "get agent", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, agent)
}

// RefreshEligibility handles POST /agents/me/eligibility
func (h *AgentHandler) RefreshEligibility(w http.ResponseWriter, r *http.Request) {
	agentID, ok := currentAgent(w, r)
	if !ok {
		return
	}

	resp, err := h.engine.RefreshEligibility(r.Context(), agentID)
	if err != nil {
		writeEngineError(w, "refresh eligibility", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
