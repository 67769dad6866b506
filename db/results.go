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

// snapshotPayload is the stored JSON document of a result snapshot.
type snapshotPayload struct {
	Result  json.RawMessage `json:"result,omitempty"`
	Primary json.RawMessage `json:"primary,omitempty"`
}

// CreateSnapshot stores a tally result. ErrConflict means the stage was
// already tallied.
func (s *Store) CreateSnapshot(ctx context.Context, snap models.ResultSnapshot) error {
	var payload snapshotPayload
	var err error
	if snap.Result != nil {
		if payload.Result, err = json.Marshal(snap.Result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	if snap.Primary != nil {
		if payload.Primary, err = json.Marshal(snap.Primary); err != nil {
			return fmt.Errorf("encode primary result: %w", err)
		}
	}
	doc, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO result_snapshot (id, election_id, stage, kind, status, inputs_hash, payload, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, snap.ID, snap.ElectionID, snap.Stage, snap.Kind, snap.Status, snap.InputsHash,
		string(doc), millis(snap.ComputedAt))
	if err != nil {
		return conflictOr(err, "create snapshot")
	}
	return nil
}

// GetSnapshot loads the snapshot for an election stage.
func (s *Store) GetSnapshot(ctx context.Context, electionID, stage string) (models.ResultSnapshot, error) {
	var (
		snap     models.ResultSnapshot
		doc      string
		computed int64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, election_id, stage, kind, status, inputs_hash, payload, computed_at
		FROM result_snapshot
		WHERE election_id = $1 AND stage = $2
	`, electionID, stage).Scan(&snap.ID, &snap.ElectionID, &snap.Stage, &snap.Kind, &snap.Status,
		&snap.InputsHash, &doc, &computed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ResultSnapshot{}, ErrNotFound
	}
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap.ComputedAt = fromMillis(computed)

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(payload.Result) > 0 {
		if err := json.Unmarshal(payload.Result, &snap.Result); err != nil {
			return models.ResultSnapshot{}, fmt.Errorf("decode result: %w", err)
		}
	}
	if len(payload.Primary) > 0 {
		if err := json.Unmarshal(payload.Primary, &snap.Primary); err != nil {
			return models.ResultSnapshot{}, fmt.Errorf("decode primary result: %w", err)
		}
	}
	return snap, nil
}

// CreatePrimaryResult stores one primary standing.
func (s *Store) CreatePrimaryResult(ctx context.Context, r models.PrimaryResult) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO primary_result (election_id, candidate_id, agent_id, agent_name, rank,
			vote_count, vote_percentage, advanced_to_general)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ElectionID, r.CandidateID, r.AgentID, r.AgentName, r.Rank, r.VoteCount,
		r.VotePercentage, r.AdvancedToGeneral)
	if err != nil {
		return conflictOr(err, "create primary result")
	}
	return nil
}

// ListPrimaryResults returns primary standings by rank.
func (s *Store) ListPrimaryResults(ctx context.Context, electionID string) ([]models.PrimaryResult, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT election_id, candidate_id, agent_id, agent_name, rank, vote_count,
			vote_percentage, advanced_to_general
		FROM primary_result
		WHERE election_id = $1
		ORDER BY rank
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("list primary results: %w", err)
	}
	defer rows.Close()

	out := []models.PrimaryResult{}
	for rows.Next() {
		var r models.PrimaryResult
		err := rows.Scan(&r.ElectionID, &r.CandidateID, &r.AgentID, &r.AgentName, &r.Rank,
			&r.VoteCount, &r.VotePercentage, &r.AdvancedToGeneral)
		if err != nil {
			return nil, fmt.Errorf("scan primary result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
