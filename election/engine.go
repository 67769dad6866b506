// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package election runs agent elections: eligibility checks, candidacy,
// commit-reveal voting and phase transitions with their tallies. Every
// operation goes through an Engine backed by a db.Store.
package election

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/metrics"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/reputation"
	"github.com/danielhkuo/agent-election/tally"
)

// Config wires an Engine to its collaborators. Store is required.
type Config struct {
	Store      *db.Store
	Reputation reputation.Lookup
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Engine runs the election protocol over persistent storage. It is safe for
// concurrent use; every state change is a single storage transaction.
type Engine struct {
	store   *db.Store
	rep     reputation.Lookup
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(cfg Config) *Engine {
	e := &Engine{
		store:   cfg.Store,
		rep:     cfg.Reputation,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rep == nil {
		e.rep = reputation.NewStatic()
	}
	return e
}

// CreateElectionParams describes a new election.
type CreateElectionParams struct {
	Title                string
	Shape                phase.Shape
	StartsAt             time.Time
	Durations            map[string]time.Duration
	TopNAdvance          int
	EndorsementThreshold int
	WeightedTally        bool
}

// CreateElection schedules a new election. Only one election may be live at
// a time; ErrElectionActive is returned while another has not completed.
func (e *Engine) CreateElection(ctx context.Context, p CreateElectionParams) (models.Election, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return models.Election{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if p.Shape == "" {
		p.Shape = phase.ShapeSingle
	}
	if p.StartsAt.IsZero() {
		p.StartsAt = e.now()
	}
	if p.TopNAdvance <= 0 {
		p.TopNAdvance = tally.DefaultTopN
	}
	if p.EndorsementThreshold <= 0 {
		p.EndorsementThreshold = models.DefaultEndorsementThreshold
	}

	sched, err := phase.NewSchedule(p.Shape, p.StartsAt, p.Durations)
	if err != nil {
		return models.Election{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := e.store.ActiveElection(ctx); err == nil {
		return models.Election{}, ErrElectionActive
	} else if !errors.Is(err, db.ErrNotFound) {
		return models.Election{}, err
	}

	el := models.Election{
		ID:                   uuid.NewString(),
		Title:                title,
		Shape:                p.Shape,
		Phase:                sched.First(),
		Schedule:             sched,
		TopNAdvance:          p.TopNAdvance,
		EndorsementThreshold: p.EndorsementThreshold,
		WeightedTally:        p.WeightedTally,
		CreatedAt:            e.now().UTC(),
	}

	if err := e.store.CreateElection(ctx, el); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return models.Election{}, ErrElectionActive
		}
		return models.Election{}, err
	}

	e.logger.Info("election created",
		"election_id", el.ID,
		"shape", el.Shape,
		"starts", humanize.Time(p.StartsAt),
	)
	return el, nil
}

// GetElection loads an election.
func (e *Engine) GetElection(ctx context.Context, id string) (models.Election, error) {
	el, err := e.store.GetElection(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Election{}, ErrElectionNotFound
	}
	return el, err
}

// CurrentElection returns the live election.
func (e *Engine) CurrentElection(ctx context.Context) (models.Election, error) {
	el, err := e.store.ActiveElection(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return models.Election{}, ErrElectionNotFound
	}
	return el, err
}

// CurrentPhase returns the stored phase of an election.
func (e *Engine) CurrentPhase(ctx context.Context, id string) (string, error) {
	el, err := e.GetElection(ctx, id)
	if err != nil {
		return "", err
	}
	return el.Phase, nil
}

// Status summarizes an election for display.
func (e *Engine) Status(ctx context.Context, id string) (models.ElectionStatusResponse, error) {
	el, err := e.GetElection(ctx, id)
	if err != nil {
		return models.ElectionStatusResponse{}, err
	}

	candidates, err := e.store.ListCandidates(ctx, id)
	if err != nil {
		return models.ElectionStatusResponse{}, err
	}
	commitments, err := e.store.ListCommitments(ctx, id)
	if err != nil {
		return models.ElectionStatusResponse{}, err
	}

	resp := models.ElectionStatusResponse{Election: el, Candidates: candidates}
	resp.Stats.Candidates = len(candidates)
	for _, c := range candidates {
		if c.Status == models.CandidateQualified {
			resp.Stats.Qualified++
		}
	}
	stage := string(phase.StageOf(el.Phase))
	for _, c := range commitments {
		if c.Stage != stage {
			continue
		}
		resp.Stats.Commitments++
		if c.Revealed {
			resp.Stats.Revealed++
		}
	}

	if w, ok := el.Schedule.Window(el.Phase); ok && !w.End.IsZero() {
		end := w.End
		resp.PhaseEnds = &end
		resp.EndsIn = humanize.RelTime(end, e.now(), "ago", "from now")
	}
	return resp, nil
}

// requireElection loads an election for an operation and checks the phase
// guard.
func (e *Engine) requireElection(ctx context.Context, store *db.Store, id string, allowed func(string) bool) (models.Election, error) {
	el, err := store.GetElection(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Election{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, err
	}
	if !allowed(el.Phase) {
		return models.Election{}, fmt.Errorf("%w: election is in %s", ErrPhaseViolation, el.Phase)
	}
	return el, nil
}

// recheckPhase locks the election inside tx and repeats the phase guard, so
// a transition cannot land between the guard and the write that follows it.
// The stage must also be unchanged since the first check.
func recheckPhase(ctx context.Context, tx *db.Store, id string, stage phase.Stage, allowed func(string) bool) error {
	if err := tx.LockElection(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrElectionNotFound
		}
		return err
	}
	el, err := tx.GetElection(ctx, id)
	if err != nil {
		return err
	}
	if !allowed(el.Phase) || phase.StageOf(el.Phase) != stage {
		return fmt.Errorf("%w: election is in %s", ErrPhaseViolation, el.Phase)
	}
	return nil
}
