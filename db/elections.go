// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
)

const electionColumns = `id, title, shape, phase, schedule, winner_agent_id, top_n_advance,
	endorsement_threshold, weighted_tally, created_at, completed_at`

func scanElection(row interface{ Scan(...any) error }) (models.Election, error) {
	var (
		e         models.Election
		shape     string
		schedule  string
		winner    sql.NullString
		createdAt int64
		completed sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Title, &shape, &e.Phase, &schedule, &winner, &e.TopNAdvance,
		&e.EndorsementThreshold, &e.WeightedTally, &createdAt, &completed)
	if err != nil {
		return models.Election{}, err
	}
	if err := json.Unmarshal([]byte(schedule), &e.Schedule); err != nil {
		return models.Election{}, fmt.Errorf("decode schedule: %w", err)
	}
	e.Shape = phase.Shape(shape)
	e.WinnerAgentID = nullString(winner)
	e.CreatedAt = fromMillis(createdAt)
	e.CompletedAt = fromNullMillis(completed)
	return e, nil
}

// CreateElection inserts a new live election. ErrConflict means another
// election has not completed yet.
func (s *Store) CreateElection(ctx context.Context, e models.Election) error {
	schedule, err := json.Marshal(e.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO election (id, title, shape, phase, schedule, top_n_advance,
			endorsement_threshold, weighted_tally, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9)
	`, e.ID, e.Title, string(e.Shape), e.Phase, string(schedule), e.TopNAdvance,
		e.EndorsementThreshold, e.WeightedTally, millis(e.CreatedAt))
	if err != nil {
		return conflictOr(err, "create election")
	}
	return nil
}

// GetElection loads an election by ID.
func (s *Store) GetElection(ctx context.Context, id string) (models.Election, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, id)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("get election: %w", err)
	}
	return e, nil
}

// ActiveElection returns the single election that has not completed.
func (s *Store) ActiveElection(ctx context.Context) (models.Election, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE active = 1`)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("get active election: %w", err)
	}
	return e, nil
}

// ListActiveElectionIDs returns IDs of every non-terminal election.
func (s *Store) ListActiveElectionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id FROM election WHERE active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active elections: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan election id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SwapPhase moves an election from one phase to the next only if it is still
// in from. It reports false when another caller already moved it.
func (s *Store) SwapPhase(ctx context.Context, id, from, to string, now time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if phase.IsTerminal(to) {
		res, err = s.q.ExecContext(ctx, `
			UPDATE election SET phase = $1, active = NULL, completed_at = $2
			WHERE id = $3 AND phase = $4
		`, to, millis(now), id, from)
	} else {
		res, err = s.q.ExecContext(ctx, `
			UPDATE election SET phase = $1 WHERE id = $2 AND phase = $3
		`, to, id, from)
	}
	if err != nil {
		return false, fmt.Errorf("swap phase: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap phase: %w", err)
	}
	return n == 1, nil
}

// LockElection takes the election row's write lock for the rest of the
// transaction. Phase swaps on the same row wait until it ends.
func (s *Store) LockElection(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE election SET phase = phase WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("lock election: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("lock election: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWinner records the elected agent.
func (s *Store) SetWinner(ctx context.Context, id string, agentID *string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE election SET winner_agent_id = $1 WHERE id = $2`, agentID, id)
	if err != nil {
		return fmt.Errorf("set winner: %w", err)
	}
	return nil
}
