// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the agent election API.

# Handler Types

Each handler is a struct with engine and config dependencies:

  - ElectionHandler: Election creation, forced advance and status
  - AgentHandler: Registration and eligibility refresh
  - CandidateHandler: Declarations and endorsements
  - VotingHandler: Evaluation packets, commit and reveal
  - ResultsHandler: Results, audit trail and primary standings

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(engine, cfg)

Handlers do no storage work themselves. They parse the request, call the
election engine and map engine errors onto status codes:

	404 - unknown election, agent, candidate or commitment
	409 - wrong phase, duplicates, repeated reveal
	403 - not eligible (with issues), results still sealed
	400 - malformed input, bad nonce, hash mismatch, unknown first choice

# Authentication

Agent endpoints expect middleware.RequireAgent to have placed the agent in
the request context. Admin endpoints are wrapped in middleware.RequireAdmin
by the router.
*/
package handlers
