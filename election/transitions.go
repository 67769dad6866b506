// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/tally"
)

// Tick applies every transition whose deadline has passed by now, running
// each transition's side effects in order. Calling it again with the same
// now is a no-op.
func (e *Engine) Tick(ctx context.Context, id string, now time.Time) (models.Election, error) {
	el, err := e.GetElection(ctx, id)
	if err != nil {
		return models.Election{}, err
	}

	for range el.Schedule.Windows {
		if phase.IsTerminal(el.Phase) || !el.Schedule.Due(el.Phase, now) {
			return el, nil
		}
		if _, err := e.transition(ctx, el, now); err != nil {
			return models.Election{}, err
		}
		if el, err = e.GetElection(ctx, id); err != nil {
			return models.Election{}, err
		}
	}
	return el, nil
}

// TickAll ticks every live election. Failures are logged and the first one
// is returned after all elections have been attempted.
func (e *Engine) TickAll(ctx context.Context, now time.Time) error {
	ids, err := e.store.ListActiveElectionIDs(ctx)
	if err != nil {
		return err
	}

	var first error
	for _, id := range ids {
		if _, err := e.Tick(ctx, id, now); err != nil {
			e.logger.Error("phase tick failed", "election_id", id, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Advance forces the next transition regardless of the schedule.
func (e *Engine) Advance(ctx context.Context, id string) (models.Election, error) {
	el, err := e.GetElection(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	if phase.IsTerminal(el.Phase) {
		return models.Election{}, ErrInvalidTransition
	}

	if _, err := e.transition(ctx, el, e.now()); err != nil {
		return models.Election{}, err
	}
	return e.GetElection(ctx, id)
}

// transition moves el from its loaded phase to the next one. The phase swap
// and its side effects share one transaction; if another caller already
// moved the election the swap matches no row and nothing else runs.
func (e *Engine) transition(ctx context.Context, el models.Election, now time.Time) (bool, error) {
	next, err := el.Schedule.Next(el.Phase)
	if errors.Is(err, phase.ErrTerminal) {
		return false, ErrInvalidTransition
	}
	if err != nil {
		return false, err
	}

	applied := false
	err = e.store.InTx(ctx, func(tx *db.Store) error {
		ok, err := tx.SwapPhase(ctx, el.ID, el.Phase, next, now)
		if err != nil || !ok {
			return err
		}
		applied = true

		switch phase.KindOf(next) {
		case phase.KindTally:
			return e.runTally(ctx, tx, el, phase.StageOf(next), now)
		case phase.KindGate:
			return e.runPrimary(ctx, tx, el, phase.StageOf(next), now)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("advance %s to %s: %w", el.Phase, next, err)
	}
	if !applied {
		return false, nil
	}

	e.metrics.Transition(next)
	attrs := []any{"election_id", el.ID, "from", el.Phase, "to", next}
	if w, ok := el.Schedule.Window(next); ok && !w.End.IsZero() {
		attrs = append(attrs, "ends", humanize.RelTime(w.End, now, "ago", "from now"))
	}
	e.logger.Info("phase advanced", attrs...)
	return true, nil
}

// roster returns tally candidates for a stage in declaration order. The
// general stage of a two-tier election is limited to advanced candidates.
func roster(candidates []models.Candidate, shape phase.Shape, stage phase.Stage) []tally.Candidate {
	out := []tally.Candidate{}
	for _, c := range candidates {
		if onBallot(c, shape, stage) {
			out = append(out, tally.Candidate{ID: c.AgentID, Name: c.AgentName})
		}
	}
	return out
}

// countedBallots returns the verified ballots of a stage and the hash of
// their sorted IDs.
func countedBallots(votes []models.Vote, stage phase.Stage) ([]tally.Ballot, string) {
	ballots := []tally.Ballot{}
	ids := []string{}
	for _, v := range votes {
		if v.Stage != string(stage) || !v.Verified {
			continue
		}
		ballots = append(ballots, v.TallyBallot())
		ids = append(ids, v.ID)
	}
	return ballots, inputsHash(ids)
}

// inputsHash is hex(SHA-256) over the sorted ballot IDs, newline separated.
func inputsHash(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	h := sha256.New()
	for _, id := range sorted {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func snapshotStatus(err error) (string, error) {
	switch {
	case err == nil:
		return models.ResultDecided, nil
	case errors.Is(err, tally.ErrNoVotes):
		return models.ResultNoVotes, nil
	case errors.Is(err, tally.ErrNoCandidates):
		return models.ResultNoCandidates, nil
	}
	return "", err
}

func (e *Engine) runTally(ctx context.Context, tx *db.Store, el models.Election, stage phase.Stage, now time.Time) error {
	candidates, err := tx.ListCandidates(ctx, el.ID)
	if err != nil {
		return err
	}
	votes, err := tx.ListVotes(ctx, el.ID)
	if err != nil {
		return err
	}

	ballots, hash := countedBallots(votes, stage)
	res, tallyErr := tally.Tally(ballots, roster(candidates, el.Shape, stage), tally.Options{Weighted: el.WeightedTally})
	status, err := snapshotStatus(tallyErr)
	if err != nil {
		return err
	}

	snap := models.ResultSnapshot{
		ID:         uuid.NewString(),
		ElectionID: el.ID,
		Stage:      string(stage),
		Kind:       models.SnapshotGeneral,
		Status:     status,
		InputsHash: hash,
		ComputedAt: now.UTC(),
	}
	if tallyErr == nil {
		snap.Result = &res
	}
	if err := tx.CreateSnapshot(ctx, snap); err != nil {
		return err
	}

	var winner *string
	if snap.Result != nil && snap.Result.Winner != nil {
		id := snap.Result.Winner.CandidateID
		winner = &id
	}
	if err := tx.SetWinner(ctx, el.ID, winner); err != nil {
		return err
	}

	e.metrics.Tally(models.SnapshotGeneral, status)
	e.logger.Info("tally complete",
		"election_id", el.ID,
		"status", status,
		"ballots", len(ballots),
		"winner", winner,
	)
	return nil
}

func (e *Engine) runPrimary(ctx context.Context, tx *db.Store, el models.Election, stage phase.Stage, now time.Time) error {
	candidates, err := tx.ListCandidates(ctx, el.ID)
	if err != nil {
		return err
	}
	votes, err := tx.ListVotes(ctx, el.ID)
	if err != nil {
		return err
	}

	byAgent := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		byAgent[c.AgentID] = c
	}

	ballots, hash := countedBallots(votes, stage)
	res, tallyErr := tally.TallyPrimary(ballots, roster(candidates, el.Shape, stage), el.TopNAdvance)
	status, err := snapshotStatus(tallyErr)
	if err != nil {
		return err
	}

	snap := models.ResultSnapshot{
		ID:         uuid.NewString(),
		ElectionID: el.ID,
		Stage:      string(stage),
		Kind:       models.SnapshotPrimary,
		Status:     status,
		InputsHash: hash,
		ComputedAt: now.UTC(),
	}
	if tallyErr == nil {
		snap.Primary = &res
	}
	if err := tx.CreateSnapshot(ctx, snap); err != nil {
		return err
	}

	advanced := 0
	for _, s := range res.Standings {
		c := byAgent[s.CandidateID]
		err := tx.CreatePrimaryResult(ctx, models.PrimaryResult{
			ElectionID:        el.ID,
			CandidateID:       c.ID,
			AgentID:           c.AgentID,
			AgentName:         c.AgentName,
			Rank:              s.Rank,
			VoteCount:         s.Weight,
			VotePercentage:    s.Percentage,
			AdvancedToGeneral: s.Advanced,
		})
		if err != nil {
			return err
		}
		if s.Advanced {
			if err := tx.MarkAdvanced(ctx, c.ID); err != nil {
				return err
			}
			advanced++
		}
	}

	e.metrics.Tally(models.SnapshotPrimary, status)
	e.logger.Info("primary complete",
		"election_id", el.ID,
		"status", status,
		"ballots", len(ballots),
		"advanced", advanced,
	)
	return nil
}
