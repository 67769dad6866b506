// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/handlers"
	"github.com/danielhkuo/agent-election/metrics"
	"github.com/danielhkuo/agent-election/middleware"
)

func NewRouter(engine *election.Engine, gatherer prometheus.Gatherer, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(engine, cfg)
	agentHandler := handlers.NewAgentHandler(engine, cfg)
	candidateHandler := handlers.NewCandidateHandler(engine, cfg)
	votingHandler := handlers.NewVotingHandler(engine, cfg)
	resultsHandler := handlers.NewResultsHandler(engine, cfg)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminSecret, h))
	}
	agent := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAgent(engine, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(gatherer))

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", admin(electionHandler.CreateElection))
	mux.HandleFunc("POST /elections/{id}/advance", admin(electionHandler.AdvanceElection))

	// Election status (public)
	mux.HandleFunc("GET /elections/current", middleware.WithLogging(electionHandler.GetCurrent))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))

	// Agent registration
	mux.HandleFunc("POST /agents/register", middleware.WithLogging(agentHandler.Register))
	mux.HandleFunc("POST /agents/register/general", middleware.WithLogging(agentHandler.RegisterGeneral))
	mux.HandleFunc("GET /agents/me", agent(agentHandler.GetMe))
	mux.HandleFunc("POST /agents/me/eligibility", agent(agentHandler.RefreshEligibility))

	// Candidacy and endorsements
	mux.HandleFunc("POST /elections/{id}/candidates", agent(candidateHandler.Declare))
	mux.HandleFunc("GET /elections/{id}/candidates", middleware.WithLogging(candidateHandler.List))
	mux.HandleFunc("GET /candidates/{id}", middleware.WithLogging(candidateHandler.Get))
	mux.HandleFunc("POST /candidates/{id}/endorse", agent(candidateHandler.Endorse))

	// Commit-reveal voting
	mux.HandleFunc("GET /elections/{id}/evaluation-packet", agent(votingHandler.EvaluationPacket))
	mux.HandleFunc("POST /elections/{id}/commit", agent(votingHandler.Commit))
	mux.HandleFunc("POST /elections/{id}/reveal", agent(votingHandler.Reveal))
	mux.HandleFunc("GET /elections/{id}/voter-roll", middleware.WithLogging(votingHandler.VoterRoll))

	// Results retrieval (public, sealed until tallying)
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /elections/{id}/audit", middleware.WithLogging(resultsHandler.GetAudit))
	mux.HandleFunc("GET /elections/{id}/primary-results", middleware.WithLogging(resultsHandler.GetPrimaryResults))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("agent-election API v1"))
	})

	return mux
}
