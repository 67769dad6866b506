// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
)

// finalStage is the stage whose tally decides the election.
func finalStage(shape phase.Shape) phase.Stage {
	if shape == phase.ShapeTwoTier {
		return phase.StageGeneral
	}
	return phase.StageNone
}

// reached reports whether current is target or a later phase of s.
func reached(s phase.Schedule, current, target string) bool {
	seen := false
	for _, w := range s.Windows {
		if w.Phase == target {
			seen = true
		}
		if w.Phase == current {
			return seen
		}
	}
	return false
}

// Results returns the final tally snapshot with turnout. Results stay sealed
// until the election enters its tally phase.
func (e *Engine) Results(ctx context.Context, electionID string) (models.ResultsResponse, error) {
	el, err := e.GetElection(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	if !resultsOpen(el.Phase) {
		return models.ResultsResponse{}, ErrResultsSealed
	}

	stage := string(finalStage(el.Shape))
	resp := models.ResultsResponse{Election: el}

	snap, err := e.store.GetSnapshot(ctx, el.ID, stage)
	switch {
	case err == nil:
		resp.Snapshot = &snap
		if snap.Result != nil {
			resp.Turnout.Counted = snap.Result.TotalBallots
		}
	case !errors.Is(err, db.ErrNotFound):
		return models.ResultsResponse{}, err
	}

	commitments, err := e.store.ListCommitments(ctx, el.ID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	for _, c := range commitments {
		if c.Stage != stage {
			continue
		}
		resp.Turnout.Committed++
		if c.Revealed {
			resp.Turnout.Revealed++
		}
	}
	return resp, nil
}

// PrimaryResults returns the primary standings of a two-tier election once
// the primary has closed.
func (e *Engine) PrimaryResults(ctx context.Context, electionID string) ([]models.PrimaryResult, *models.ResultSnapshot, error) {
	el, err := e.GetElection(ctx, electionID)
	if err != nil {
		return nil, nil, err
	}
	if el.Shape != phase.ShapeTwoTier {
		return nil, nil, fmt.Errorf("%w: election has no primary", ErrInvalidInput)
	}
	if !reached(el.Schedule, el.Phase, phase.PrimaryComplete) {
		return nil, nil, ErrResultsSealed
	}

	standings, err := e.store.ListPrimaryResults(ctx, el.ID)
	if err != nil {
		return nil, nil, err
	}
	snap, err := e.store.GetSnapshot(ctx, el.ID, string(phase.StagePrimary))
	if errors.Is(err, db.ErrNotFound) {
		return standings, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return standings, &snap, nil
}
