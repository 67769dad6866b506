// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/middleware"
)

var statusByError = []struct {
	err    error
	status int
}{
	{election.ErrElectionNotFound, http.StatusNotFound},
	{election.ErrAgentNotFound, http.StatusNotFound},
	{election.ErrCandidateNotFound, http.StatusNotFound},
	{election.ErrNotCommitted, http.StatusNotFound},
	{election.ErrPhaseViolation, http.StatusConflict},
	{election.ErrInvalidTransition, http.StatusConflict},
	{election.ErrElectionActive, http.StatusConflict},
	{election.ErrAlreadyRegistered, http.StatusConflict},
	{election.ErrDuplicateCommitment, http.StatusConflict},
	{election.ErrDuplicateEndorsement, http.StatusConflict},
	{election.ErrDuplicateCandidacy, http.StatusConflict},
	{election.ErrAlreadyRevealed, http.StatusConflict},
	{election.ErrNonceUsed, http.StatusConflict},
	{election.ErrResultsSealed, http.StatusForbidden},
	{election.ErrSelfEndorsement, http.StatusBadRequest},
	{election.ErrInvalidNonce, http.StatusBadRequest},
	{election.ErrInvalidBallot, http.StatusBadRequest},
	{election.ErrInvalidInput, http.StatusBadRequest},
	{election.ErrUnknownCandidate, http.StatusBadRequest},
	{election.ErrHashMismatch, http.StatusBadRequest},
	{election.ErrReputationUnavailable, http.StatusBadGateway},
}

// writeEngineError maps an engine error onto an HTTP error response.
// Unrecognized errors are logged and reported as 500.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	var ee *election.EligibilityError
	if errors.As(err, &ee) {
		middleware.IssuesResponse(w, http.StatusForbidden, election.ErrNotEligible.Error(), ee.Issues)
		return
	}

	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			middleware.ErrorResponse(w, m.status, err.Error())
			return
		}
	}

	slog.Error(op+" failed", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
}

// currentAgent returns the agent attached by middleware.RequireAgent.
func currentAgent(w http.ResponseWriter, r *http.Request) (string, bool) {
	agent, ok := middleware.AgentFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return agent.ID, true
}
