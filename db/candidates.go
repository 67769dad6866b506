// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/agent-election/models"
)

const candidateColumns = `id, election_id, agent_id, agent_name, platform, endorsement_count,
	status, advanced, declared_at`

func scanCandidate(row interface{ Scan(...any) error }) (models.Candidate, error) {
	var (
		c        models.Candidate
		platform string
		declared int64
	)
	err := row.Scan(&c.ID, &c.ElectionID, &c.AgentID, &c.AgentName, &platform,
		&c.EndorsementCount, &c.Status, &c.Advanced, &declared)
	if err != nil {
		return models.Candidate{}, err
	}
	if err := json.Unmarshal([]byte(platform), &c.Platform); err != nil {
		return models.Candidate{}, fmt.Errorf("decode platform: %w", err)
	}
	c.DeclaredAt = fromMillis(declared)
	return c, nil
}

// CreateCandidate records a declaration. ErrConflict means the agent has
// already declared in this election.
func (s *Store) CreateCandidate(ctx context.Context, c models.Candidate) error {
	platform, err := json.Marshal(c.Platform)
	if err != nil {
		return fmt.Errorf("encode platform: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO candidate (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.ElectionID, c.AgentID, c.AgentName, string(platform), c.EndorsementCount,
		c.Status, c.Advanced, millis(c.DeclaredAt))
	if err != nil {
		return conflictOr(err, "create candidate")
	}
	return nil
}

// GetCandidate loads a candidate by ID.
func (s *Store) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// GetCandidateByAgent finds an agent's candidacy in an election.
func (s *Store) GetCandidateByAgent(ctx context.Context, electionID, agentID string) (models.Candidate, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+candidateColumns+` FROM candidate WHERE election_id = $1 AND agent_id = $2
	`, electionID, agentID)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns an election's candidates in declaration order.
func (s *Store) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+candidateColumns+` FROM candidate
		WHERE election_id = $1
		ORDER BY declared_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CreateEndorsement inserts an endorsement. ErrConflict means the voter has
// already endorsed this candidate.
func (s *Store) CreateEndorsement(ctx context.Context, e models.Endorsement) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO endorsement (id, election_id, candidate_id, voter_agent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.ElectionID, e.CandidateID, e.VoterAgentID, millis(e.CreatedAt))
	if err != nil {
		return conflictOr(err, "create endorsement")
	}
	return nil
}

// BumpEndorsements increments the count and promotes a pending candidate
// that reaches threshold. Qualified and disqualified candidates keep their
// status.
func (s *Store) BumpEndorsements(ctx context.Context, candidateID string, threshold int) (models.Candidate, error) {
	_, err := s.q.ExecContext(ctx, `
		UPDATE candidate SET
			endorsement_count = endorsement_count + 1,
			status = CASE
				WHEN status = 'pending' AND endorsement_count + 1 >= $1 THEN 'qualified'
				ELSE status
			END
		WHERE id = $2
	`, threshold, candidateID)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("bump endorsements: %w", err)
	}
	return s.GetCandidate(ctx, candidateID)
}

// ListEndorsements returns a candidate's endorsers, oldest first.
func (s *Store) ListEndorsements(ctx context.Context, candidateID string) ([]models.Endorsement, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, e.election_id, e.candidate_id, e.voter_agent_id, a.name, e.created_at
		FROM endorsement e
		JOIN agent a ON a.id = e.voter_agent_id
		WHERE e.candidate_id = $1
		ORDER BY e.created_at, e.id
	`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list endorsements: %w", err)
	}
	defer rows.Close()

	out := []models.Endorsement{}
	for rows.Next() {
		var (
			e       models.Endorsement
			created int64
		)
		if err := rows.Scan(&e.ID, &e.ElectionID, &e.CandidateID, &e.VoterAgentID, &e.VoterName, &created); err != nil {
			return nil, fmt.Errorf("scan endorsement: %w", err)
		}
		e.CreatedAt = fromMillis(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkAdvanced flags a candidate as advancing to the general stage.
func (s *Store) MarkAdvanced(ctx context.Context, candidateID string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE candidate SET advanced = $1 WHERE id = $2`, true, candidateID)
	if err != nil {
		return fmt.Errorf("mark advanced: %w", err)
	}
	return nil
}
