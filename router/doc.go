// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the agent election API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(engine, registry, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Election management (admin, requires the admin secret as a bearer token):

	POST /elections              - Create election
	POST /elections/{id}/advance - Force the next phase

Elections (public):

	GET /elections/current - Live election with status
	GET /elections/{id}    - Election status

Agents:

	POST /agents/register         - Verified-tier registration
	POST /agents/register/general - General-tier registration
	GET  /agents/me               - Authenticated agent
	POST /agents/me/eligibility   - Re-check eligibility

Candidates (declare and endorse require an agent API key):

	POST /elections/{id}/candidates - Declare candidacy
	GET  /elections/{id}/candidates - List candidates
	GET  /candidates/{id}           - Candidate with endorsers
	POST /candidates/{id}/endorse   - Endorse

Voting (requires an agent API key, except the voter roll):

	GET  /elections/{id}/evaluation-packet - Roster and nonce
	POST /elections/{id}/commit            - Commit a ballot hash
	POST /elections/{id}/reveal            - Reveal the ballot
	GET  /elections/{id}/voter-roll        - Who has committed

Results (public, sealed until tallying):

	GET /elections/{id}/results
	GET /elections/{id}/audit
	GET /elections/{id}/primary-results
*/
package router
