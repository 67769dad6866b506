// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, shape, schedule overrides, top_n_advance
  - RegisterAgentRequest: external_id, optional handles
  - RegisterGeneralRequest: agent_name, verification_method, verification_data
  - DeclareCandidacyRequest: platform
  - CommitRequest: commitment_hash, nonce
  - RevealRequest: vote_data, nonce

# Response Types

Types for JSON responses:

  - RegisterAgentResponse: agent, api_key, eligibility, candidacy
  - EligibilityResponse: agent, voter, candidacy
  - ElectionStatusResponse: election, phase end, stats, candidates
  - EndorseResponse: endorsement_count, status, needed_to_qualify
  - EvaluationPacket: roster, nonce, commit guidance
  - CommitResponse, RevealResponse
  - ResultsResponse: election, snapshot, turnout
  - AuditEntry: commitment with its revealed vote and recomputed hash
  - ErrorResponse: error, message, issues

# Domain Types

Internal data structures:

  - Election: shape, phase, schedule and winner
  - Agent: tier, eligibility flags and activity signals
  - Candidate, Endorsement
  - Commitment: sealed hash per (election, stage, agent)
  - Vote: revealed ballot tied to its commitment
  - ResultSnapshot: immutable tally record per stage
  - PrimaryResult: a candidate's primary standing

# Constants

Candidate status:

	CandidatePending      = "pending"
	CandidateQualified    = "qualified"
	CandidateDisqualified = "disqualified"

Snapshot status:

	ResultDecided      = "decided"
	ResultNoVotes      = "no_votes"
	ResultNoCandidates = "no_candidates"
*/
package models
