// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/agent-election/models"
)

// InsertNonce stores a fresh nonce unless one already exists for the
// (election, stage, agent) key, then returns whichever nonce is stored.
func (s *Store) InsertNonce(ctx context.Context, electionID, stage, agentID, nonce string, now time.Time) (string, bool, error) {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO eval_nonce (election_id, stage, agent_id, nonce, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`, electionID, stage, agentID, nonce, false, millis(now))
	if err != nil {
		return "", false, fmt.Errorf("insert nonce: %w", err)
	}
	return s.GetNonce(ctx, electionID, stage, agentID)
}

// GetNonce returns the stored nonce and whether it has been used.
func (s *Store) GetNonce(ctx context.Context, electionID, stage, agentID string) (string, bool, error) {
	var (
		nonce string
		used  bool
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT nonce, used FROM eval_nonce
		WHERE election_id = $1 AND stage = $2 AND agent_id = $3
	`, electionID, stage, agentID).Scan(&nonce, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, used, nil
}

// ConsumeNonce marks the nonce used if it matches and is still unused.
func (s *Store) ConsumeNonce(ctx context.Context, electionID, stage, agentID, nonce string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE eval_nonce SET used = $1
		WHERE election_id = $2 AND stage = $3 AND agent_id = $4 AND nonce = $5 AND used = $6
	`, true, electionID, stage, agentID, nonce, false)
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	return n == 1, nil
}

const commitmentColumns = `id, election_id, stage, agent_id, commitment_hash, eval_nonce,
	autonomy_score, committed_at, revealed`

func scanCommitment(row interface{ Scan(...any) error }) (models.Commitment, error) {
	var (
		c         models.Commitment
		committed int64
	)
	err := row.Scan(&c.ID, &c.ElectionID, &c.Stage, &c.AgentID, &c.CommitmentHash, &c.EvalNonce,
		&c.AutonomyScore, &committed, &c.Revealed)
	if err != nil {
		return models.Commitment{}, err
	}
	c.CommittedAt = fromMillis(committed)
	return c, nil
}

// CreateCommitment stores a commitment. ErrConflict means the agent has
// already committed in this stage.
func (s *Store) CreateCommitment(ctx context.Context, c models.Commitment) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO vote_commitment (`+commitmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.ElectionID, c.Stage, c.AgentID, c.CommitmentHash, c.EvalNonce,
		c.AutonomyScore, millis(c.CommittedAt), c.Revealed)
	if err != nil {
		return conflictOr(err, "create commitment")
	}
	return nil
}

// GetCommitment finds an agent's commitment for an election stage.
func (s *Store) GetCommitment(ctx context.Context, electionID, stage, agentID string) (models.Commitment, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+commitmentColumns+` FROM vote_commitment
		WHERE election_id = $1 AND stage = $2 AND agent_id = $3
	`, electionID, stage, agentID)
	c, err := scanCommitment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Commitment{}, ErrNotFound
	}
	if err != nil {
		return models.Commitment{}, fmt.Errorf("get commitment: %w", err)
	}
	return c, nil
}

// ListCommitments returns every commitment in an election, oldest first.
func (s *Store) ListCommitments(ctx context.Context, electionID string) ([]models.Commitment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+commitmentColumns+` FROM vote_commitment
		WHERE election_id = $1
		ORDER BY committed_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()

	out := []models.Commitment{}
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// VoterRoll lists who committed and whether they revealed, without hashes.
func (s *Store) VoterRoll(ctx context.Context, electionID string) ([]models.VoterRollEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.agent_id, a.name, c.stage, c.committed_at, c.revealed
		FROM vote_commitment c
		JOIN agent a ON a.id = c.agent_id
		WHERE c.election_id = $1
		ORDER BY c.committed_at, c.id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("voter roll: %w", err)
	}
	defer rows.Close()

	out := []models.VoterRollEntry{}
	for rows.Next() {
		var (
			e         models.VoterRollEntry
			committed int64
		)
		if err := rows.Scan(&e.AgentID, &e.AgentName, &e.Stage, &committed, &e.Revealed); err != nil {
			return nil, fmt.Errorf("scan voter roll: %w", err)
		}
		e.CommittedAt = fromMillis(committed)
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkRevealed flips the revealed flag once. It reports false if the
// commitment was already revealed.
func (s *Store) MarkRevealed(ctx context.Context, commitmentID string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE vote_commitment SET revealed = $1 WHERE id = $2 AND revealed = $3
	`, true, commitmentID, false)
	if err != nil {
		return false, fmt.Errorf("mark revealed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark revealed: %w", err)
	}
	return n == 1, nil
}

// CreateVote stores a verified ballot.
func (s *Store) CreateVote(ctx context.Context, v models.Vote) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO vote (id, commitment_id, election_id, stage, agent_id, first_choice,
			second_choice, third_choice, rationale, nonce, autonomy_score, verified, revealed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, v.ID, v.CommitmentID, v.ElectionID, v.Stage, v.AgentID, v.FirstChoice, v.SecondChoice,
		v.ThirdChoice, v.Rationale, v.Nonce, v.AutonomyScore, v.Verified, millis(v.RevealedAt))
	if err != nil {
		return conflictOr(err, "create vote")
	}
	return nil
}

// ListVotes returns every revealed ballot in an election, oldest first.
func (s *Store) ListVotes(ctx context.Context, electionID string) ([]models.Vote, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, commitment_id, election_id, stage, agent_id, first_choice, second_choice,
			third_choice, rationale, nonce, autonomy_score, verified, revealed_at
		FROM vote
		WHERE election_id = $1
		ORDER BY revealed_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := []models.Vote{}
	for rows.Next() {
		var (
			v        models.Vote
			revealed int64
		)
		err := rows.Scan(&v.ID, &v.CommitmentID, &v.ElectionID, &v.Stage, &v.AgentID, &v.FirstChoice,
			&v.SecondChoice, &v.ThirdChoice, &v.Rationale, &v.Nonce, &v.AutonomyScore, &v.Verified, &revealed)
		if err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.RevealedAt = fromMillis(revealed)
		out = append(out, v)
	}
	return out, rows.Err()
}
