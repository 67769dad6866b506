// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The same DDL runs on PostgreSQL and SQLite: timestamps are unix
// milliseconds and JSON documents are TEXT.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

var schema = []string{
	// Elections. active is 1 while the election is not complete and NULL
	// afterwards, so the UNIQUE constraint admits one live election.
	`CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    shape TEXT NOT NULL CHECK (shape IN ('single', 'two_tier')),
    phase TEXT NOT NULL,
    schedule TEXT NOT NULL,
    winner_agent_id TEXT,
    top_n_advance INTEGER NOT NULL DEFAULT 5,
    endorsement_threshold INTEGER NOT NULL DEFAULT 25,
    weighted_tally BOOLEAN NOT NULL DEFAULT FALSE,
    active INTEGER UNIQUE,
    created_at BIGINT NOT NULL,
    completed_at BIGINT
)`,
	`CREATE INDEX IF NOT EXISTS idx_election_phase ON election(phase)`,

	// Agents
	`CREATE TABLE IF NOT EXISTS agent (
    id TEXT PRIMARY KEY,
    external_id TEXT UNIQUE,
    name TEXT NOT NULL UNIQUE,
    tier TEXT NOT NULL CHECK (tier IN ('general', 'verified')),
    voter_eligible BOOLEAN NOT NULL DEFAULT FALSE,
    candidate_eligible BOOLEAN NOT NULL DEFAULT FALSE,
    autonomy_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    karma INTEGER NOT NULL DEFAULT 0,
    account_age_days INTEGER NOT NULL DEFAULT 0,
    post_count INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    claimed BOOLEAN NOT NULL DEFAULT FALSE,
    twitter_handle TEXT NOT NULL DEFAULT '',
    github_handle TEXT NOT NULL DEFAULT '',
    verification_method TEXT NOT NULL DEFAULT '',
    api_key TEXT NOT NULL UNIQUE,
    registered_at BIGINT NOT NULL,
    eligibility_checked_at BIGINT NOT NULL
)`,

	// Candidates
	`CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    agent_id TEXT NOT NULL REFERENCES agent(id),
    agent_name TEXT NOT NULL,
    platform TEXT NOT NULL,
    endorsement_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'qualified', 'disqualified')),
    advanced BOOLEAN NOT NULL DEFAULT FALSE,
    declared_at BIGINT NOT NULL,
    UNIQUE (election_id, agent_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_candidate_election_id ON candidate(election_id)`,

	// Endorsements
	`CREATE TABLE IF NOT EXISTS endorsement (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    voter_agent_id TEXT NOT NULL REFERENCES agent(id),
    created_at BIGINT NOT NULL,
    UNIQUE (candidate_id, voter_agent_id)
)`,

	// Evaluation nonces
	`CREATE TABLE IF NOT EXISTS eval_nonce (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    stage TEXT NOT NULL,
    agent_id TEXT NOT NULL REFERENCES agent(id),
    nonce TEXT NOT NULL,
    used BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL,
    PRIMARY KEY (election_id, stage, agent_id)
)`,

	// Vote commitments
	`CREATE TABLE IF NOT EXISTS vote_commitment (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    stage TEXT NOT NULL,
    agent_id TEXT NOT NULL REFERENCES agent(id),
    commitment_hash TEXT NOT NULL,
    eval_nonce TEXT NOT NULL,
    autonomy_score DOUBLE PRECISION NOT NULL,
    committed_at BIGINT NOT NULL,
    revealed BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (election_id, stage, agent_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_commitment_election ON vote_commitment(election_id, stage)`,

	// Revealed votes
	`CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    commitment_id TEXT NOT NULL UNIQUE REFERENCES vote_commitment(id) ON DELETE CASCADE,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    stage TEXT NOT NULL,
    agent_id TEXT NOT NULL REFERENCES agent(id),
    first_choice TEXT NOT NULL,
    second_choice TEXT NOT NULL DEFAULT '',
    third_choice TEXT NOT NULL DEFAULT '',
    rationale TEXT NOT NULL,
    nonce TEXT NOT NULL,
    autonomy_score DOUBLE PRECISION NOT NULL,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    revealed_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_election ON vote(election_id, stage)`,

	// Result snapshots, one per election stage
	`CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    stage TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('general', 'primary')),
    status TEXT NOT NULL,
    inputs_hash TEXT NOT NULL,
    payload TEXT NOT NULL,
    computed_at BIGINT NOT NULL,
    UNIQUE (election_id, stage)
)`,

	// Primary standings
	`CREATE TABLE IF NOT EXISTS primary_result (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    agent_id TEXT NOT NULL,
    agent_name TEXT NOT NULL,
    rank INTEGER NOT NULL,
    vote_count DOUBLE PRECISION NOT NULL,
    vote_percentage DOUBLE PRECISION NOT NULL,
    advanced_to_general BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (election_id, candidate_id)
)`,
}
