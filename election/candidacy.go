// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/eligibility"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
)

// Platform text limits
const (
	MaxManifestoLength = 4000
	MaxPositionLength  = 1000
)

func validatePlatform(p models.Platform) (models.Platform, error) {
	p.Manifesto = strings.TrimSpace(p.Manifesto)
	if p.Manifesto == "" {
		return p, fmt.Errorf("%w: manifesto is required", ErrInvalidInput)
	}
	if len(p.Manifesto) > MaxManifestoLength {
		return p, fmt.Errorf("%w: manifesto exceeds %d characters", ErrInvalidInput, MaxManifestoLength)
	}

	positions := []*string{
		&p.Positions.Governance,
		&p.Positions.Coordination,
		&p.Positions.Security,
		&p.Positions.Economy,
		&p.Positions.Culture,
	}
	for _, s := range positions {
		*s = strings.TrimSpace(*s)
		if len(*s) > MaxPositionLength {
			return p, fmt.Errorf("%w: position exceeds %d characters", ErrInvalidInput, MaxPositionLength)
		}
	}
	return p, nil
}

// Declare enters an agent as a pending candidate. Declarations close when
// the declaration phase ends.
func (e *Engine) Declare(ctx context.Context, electionID, agentID string, platform models.Platform) (models.Candidate, error) {
	el, err := e.requireElection(ctx, e.store, electionID, phase.CanDeclare)
	if err != nil {
		return models.Candidate{}, e.reject("declare", err)
	}

	agent, err := loadAgent(ctx, e.store, agentID)
	if err != nil {
		return models.Candidate{}, err
	}
	if !agent.CandidateEligible {
		issues := []string{"candidacy requires the verified tier"}
		if agent.Tier == eligibility.TierVerified {
			issues = eligibility.ClassifyCandidate(agent.Signals()).Issues
		}
		return models.Candidate{}, e.reject("declare", notEligible(issues))
	}

	platform, err = validatePlatform(platform)
	if err != nil {
		return models.Candidate{}, e.reject("declare", err)
	}

	c := models.Candidate{
		ID:         uuid.NewString(),
		ElectionID: el.ID,
		AgentID:    agent.ID,
		AgentName:  agent.Name,
		Platform:   platform,
		Status:     models.CandidatePending,
		DeclaredAt: e.now().UTC(),
	}
	if err := e.store.CreateCandidate(ctx, c); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return models.Candidate{}, e.reject("declare", ErrDuplicateCandidacy)
		}
		return models.Candidate{}, err
	}

	e.logger.Info("candidacy declared", "election_id", el.ID, "candidate_id", c.ID, "agent_id", agent.ID)
	return c, nil
}

// Endorse adds a voter's endorsement to a candidate. A pending candidate
// becomes qualified once it reaches the election's endorsement threshold.
func (e *Engine) Endorse(ctx context.Context, candidateID, voterID string) (models.EndorseResponse, error) {
	cand, err := e.store.GetCandidate(ctx, candidateID)
	if errors.Is(err, db.ErrNotFound) {
		return models.EndorseResponse{}, ErrCandidateNotFound
	}
	if err != nil {
		return models.EndorseResponse{}, err
	}

	el, err := e.requireElection(ctx, e.store, cand.ElectionID, phase.CanEndorse)
	if err != nil {
		return models.EndorseResponse{}, e.reject("endorse", err)
	}

	voter, err := loadAgent(ctx, e.store, voterID)
	if err != nil {
		return models.EndorseResponse{}, err
	}
	if err := checkVoter(voter, phase.StageNone); err != nil {
		return models.EndorseResponse{}, e.reject("endorse", err)
	}
	if cand.AgentID == voter.ID {
		return models.EndorseResponse{}, e.reject("endorse", ErrSelfEndorsement)
	}

	var updated models.Candidate
	err = e.store.InTx(ctx, func(tx *db.Store) error {
		err := tx.CreateEndorsement(ctx, models.Endorsement{
			ID:           uuid.NewString(),
			ElectionID:   el.ID,
			CandidateID:  cand.ID,
			VoterAgentID: voter.ID,
			CreatedAt:    e.now().UTC(),
		})
		if errors.Is(err, db.ErrConflict) {
			return ErrDuplicateEndorsement
		}
		if err != nil {
			return err
		}
		updated, err = tx.BumpEndorsements(ctx, cand.ID, el.EndorsementThreshold)
		return err
	})
	if err != nil {
		return models.EndorseResponse{}, e.reject("endorse", err)
	}

	if updated.Status != cand.Status {
		e.logger.Info("candidate qualified",
			"election_id", el.ID,
			"candidate_id", cand.ID,
			"endorsements", updated.EndorsementCount,
		)
	}

	return models.EndorseResponse{
		CandidateID:      updated.ID,
		EndorsementCount: updated.EndorsementCount,
		Status:           updated.Status,
		NeededToQualify:  max(0, el.EndorsementThreshold-updated.EndorsementCount),
	}, nil
}

// ListCandidates returns an election's candidates in declaration order.
func (e *Engine) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	if _, err := e.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return e.store.ListCandidates(ctx, electionID)
}

// GetCandidate returns a candidate and its endorsers.
func (e *Engine) GetCandidate(ctx context.Context, id string) (models.Candidate, []models.Endorsement, error) {
	c, err := e.store.GetCandidate(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Candidate{}, nil, ErrCandidateNotFound
	}
	if err != nil {
		return models.Candidate{}, nil, err
	}
	endorsements, err := e.store.ListEndorsements(ctx, id)
	if err != nil {
		return models.Candidate{}, nil, err
	}
	return c, endorsements, nil
}
