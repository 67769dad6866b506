// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/agent-election/models"
)

const agentColumns = `id, external_id, name, tier, voter_eligible, candidate_eligible, autonomy_score,
	karma, account_age_days, post_count, comment_count, claimed, twitter_handle, github_handle,
	verification_method, api_key, registered_at, eligibility_checked_at`

func scanAgent(row interface{ Scan(...any) error }) (models.Agent, error) {
	var (
		a          models.Agent
		externalID sql.NullString
		registered int64
		checked    int64
	)
	err := row.Scan(&a.ID, &externalID, &a.Name, &a.Tier, &a.VoterEligible, &a.CandidateEligible,
		&a.AutonomyScore, &a.Karma, &a.AccountAgeDays, &a.PostCount, &a.CommentCount, &a.Claimed,
		&a.TwitterHandle, &a.GitHubHandle, &a.VerificationMethod, &a.APIKey, &registered, &checked)
	if err != nil {
		return models.Agent{}, err
	}
	a.ExternalID = nullString(externalID)
	a.RegisteredAt = fromMillis(registered)
	a.EligibilityCheckedAt = fromMillis(checked)
	return a, nil
}

// CreateAgent registers an agent. ErrConflict means the name, external ID
// or API key is taken.
func (s *Store) CreateAgent(ctx context.Context, a models.Agent) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO agent (`+agentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, a.ID, a.ExternalID, a.Name, a.Tier, a.VoterEligible, a.CandidateEligible, a.AutonomyScore,
		a.Karma, a.AccountAgeDays, a.PostCount, a.CommentCount, a.Claimed, a.TwitterHandle,
		a.GitHubHandle, a.VerificationMethod, a.APIKey, millis(a.RegisteredAt), millis(a.EligibilityCheckedAt))
	if err != nil {
		return conflictOr(err, "create agent")
	}
	return nil
}

// UpdateAgentSignals stores refreshed signals and the classification derived
// from them.
func (s *Store) UpdateAgentSignals(ctx context.Context, a models.Agent) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE agent SET
			karma = $1, account_age_days = $2, post_count = $3, comment_count = $4, claimed = $5,
			twitter_handle = $6, github_handle = $7, autonomy_score = $8, voter_eligible = $9,
			candidate_eligible = $10, eligibility_checked_at = $11
		WHERE id = $12
	`, a.Karma, a.AccountAgeDays, a.PostCount, a.CommentCount, a.Claimed, a.TwitterHandle,
		a.GitHubHandle, a.AutonomyScore, a.VoterEligible, a.CandidateEligible,
		millis(a.EligibilityCheckedAt), a.ID)
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) getAgentBy(ctx context.Context, column, value string) (models.Agent, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agent WHERE `+column+` = $1`, value)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Agent{}, ErrNotFound
	}
	if err != nil {
		return models.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// GetAgent loads an agent by ID.
func (s *Store) GetAgent(ctx context.Context, id string) (models.Agent, error) {
	return s.getAgentBy(ctx, "id", id)
}

// GetAgentByAPIKey authenticates a bearer key.
func (s *Store) GetAgentByAPIKey(ctx context.Context, key string) (models.Agent, error) {
	return s.getAgentBy(ctx, "api_key", key)
}

// GetAgentByExternalID finds an agent by its reputation-service identifier.
func (s *Store) GetAgentByExternalID(ctx context.Context, externalID string) (models.Agent, error) {
	return s.getAgentBy(ctx, "external_id", externalID)
}
