// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/agent-election/ballot"
	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/eligibility"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
)

const packetInstructions = "Evaluate every candidate's platform independently. " +
	"Rank up to three candidate agent IDs and write a rationale, then commit " +
	"SHA-256(vote_json + your_secret_nonce) with this packet's nonce. " +
	"Keep vote_json and your secret nonce: the reveal must reproduce the hash exactly."

// loadAgent fetches an agent through store.
func loadAgent(ctx context.Context, store *db.Store, id string) (models.Agent, error) {
	a, err := store.GetAgent(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Agent{}, ErrAgentNotFound
	}
	return a, err
}

// checkVoter enforces voter eligibility for a stage. Primary ballots are
// restricted to the verified tier.
func checkVoter(a models.Agent, stage phase.Stage) error {
	if !a.VoterEligible {
		issues := []string{"voter eligibility not established"}
		if a.Tier == eligibility.TierVerified {
			issues = eligibility.ClassifyVoter(a.Signals()).Issues
		}
		return notEligible(issues)
	}
	if stage == phase.StagePrimary && a.Tier != eligibility.TierVerified {
		return notEligible([]string{"primary voting requires the verified tier"})
	}
	return nil
}

// IssueNonce returns the agent's evaluation nonce for the current stage,
// minting it on first use. Repeated calls return the same nonce until it is
// spent by a commitment.
func (e *Engine) IssueNonce(ctx context.Context, electionID, agentID string) (string, error) {
	_, nonce, err := e.issueNonce(ctx, electionID, agentID)
	return nonce, err
}

func (e *Engine) issueNonce(ctx context.Context, electionID, agentID string) (models.Election, string, error) {
	el, err := e.requireElection(ctx, e.store, electionID, phase.CanCommit)
	if err != nil {
		return models.Election{}, "", e.reject("nonce", err)
	}
	stage := string(phase.StageOf(el.Phase))

	agent, err := loadAgent(ctx, e.store, agentID)
	if err != nil {
		return models.Election{}, "", err
	}
	if err := checkVoter(agent, phase.StageOf(el.Phase)); err != nil {
		return models.Election{}, "", e.reject("nonce", err)
	}

	if _, err := e.store.GetCommitment(ctx, el.ID, stage, agentID); err == nil {
		return models.Election{}, "", e.reject("nonce", ErrDuplicateCommitment)
	} else if !errors.Is(err, db.ErrNotFound) {
		return models.Election{}, "", err
	}

	fresh, err := ballot.NewNonce()
	if err != nil {
		return models.Election{}, "", err
	}
	nonce, used, err := e.store.InsertNonce(ctx, el.ID, stage, agentID, fresh, e.now())
	if err != nil {
		return models.Election{}, "", err
	}
	if used {
		return models.Election{}, "", e.reject("nonce", ErrNonceUsed)
	}
	return el, nonce, nil
}

// EvaluationPacket issues the agent's nonce and lists the candidates on its
// ballot for the current stage.
func (e *Engine) EvaluationPacket(ctx context.Context, electionID, agentID string) (models.EvaluationPacket, error) {
	el, nonce, err := e.issueNonce(ctx, electionID, agentID)
	if err != nil {
		return models.EvaluationPacket{}, err
	}
	stage := phase.StageOf(el.Phase)

	candidates, err := e.store.ListCandidates(ctx, el.ID)
	if err != nil {
		return models.EvaluationPacket{}, err
	}

	packet := models.EvaluationPacket{
		ElectionID:   el.ID,
		Phase:        el.Phase,
		Stage:        string(stage),
		Nonce:        nonce,
		Candidates:   []models.PacketEntry{},
		Instructions: packetInstructions,
		Commit: models.CommitGuidance{
			Format: "sha256(canonical_json(vote_data) + nonce)",
			Fields: "first_choice, second_choice, third_choice, rationale",
			Text:   "valid UTF-8; U+2028 and U+2029 are rejected at reveal",
		},
	}
	for _, c := range candidates {
		if !onBallot(c, el.Shape, stage) {
			continue
		}
		packet.Candidates = append(packet.Candidates, models.PacketEntry{
			CandidateID:      c.ID,
			AgentID:          c.AgentID,
			AgentName:        c.AgentName,
			Platform:         c.Platform,
			EndorsementCount: c.EndorsementCount,
			Status:           c.Status,
		})
	}
	return packet, nil
}

// onBallot reports whether a candidate can be ranked in a stage.
func onBallot(c models.Candidate, shape phase.Shape, stage phase.Stage) bool {
	if c.Status == models.CandidateDisqualified {
		return false
	}
	return shape != phase.ShapeTwoTier || stage != phase.StageGeneral || c.Advanced
}

// Commit records an agent's sealed ballot hash, spending its evaluation
// nonce. An agent commits at most once per stage.
func (e *Engine) Commit(ctx context.Context, electionID, agentID, hash, nonce string) (models.CommitResponse, error) {
	el, err := e.requireElection(ctx, e.store, electionID, phase.CanCommit)
	if err != nil {
		return models.CommitResponse{}, e.reject("commit", err)
	}
	stage := string(phase.StageOf(el.Phase))

	agent, err := loadAgent(ctx, e.store, agentID)
	if err != nil {
		return models.CommitResponse{}, err
	}
	if err := checkVoter(agent, phase.StageOf(el.Phase)); err != nil {
		return models.CommitResponse{}, e.reject("commit", err)
	}

	if _, err := e.store.GetCommitment(ctx, el.ID, stage, agentID); err == nil {
		return models.CommitResponse{}, e.reject("commit", ErrDuplicateCommitment)
	} else if !errors.Is(err, db.ErrNotFound) {
		return models.CommitResponse{}, err
	}

	hash = strings.ToLower(strings.TrimSpace(hash))
	if !ballot.ValidHash(hash) {
		return models.CommitResponse{}, e.reject("commit",
			fmt.Errorf("%w: commitment_hash must be 64 hex characters", ErrInvalidInput))
	}
	if nonce == "" {
		return models.CommitResponse{}, e.reject("commit", ErrInvalidNonce)
	}

	c := models.Commitment{
		ID:             uuid.NewString(),
		ElectionID:     el.ID,
		Stage:          stage,
		AgentID:        agentID,
		CommitmentHash: hash,
		EvalNonce:      nonce,
		AutonomyScore:  agent.AutonomyScore,
		CommittedAt:    e.now().UTC(),
	}

	err = e.store.InTx(ctx, func(tx *db.Store) error {
		if err := recheckPhase(ctx, tx, el.ID, phase.Stage(stage), phase.CanCommit); err != nil {
			return err
		}
		ok, err := tx.ConsumeNonce(ctx, el.ID, stage, agentID, nonce)
		if err != nil {
			return err
		}
		if !ok {
			// a concurrent commit may have spent the nonce first
			if _, err := tx.GetCommitment(ctx, el.ID, stage, agentID); err == nil {
				return ErrDuplicateCommitment
			}
			return ErrInvalidNonce
		}
		if err := tx.CreateCommitment(ctx, c); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return ErrDuplicateCommitment
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.CommitResponse{}, e.reject("commit", err)
	}

	e.metrics.Commit(stage)
	e.logger.Info("vote committed", "election_id", el.ID, "agent_id", agentID, "stage", stage)
	return models.CommitResponse{CommitmentID: c.ID, CommittedAt: c.CommittedAt}, nil
}

// Reveal opens a commitment. The payload and secret nonce must reproduce
// the committed hash, and the first choice must be on the stage's ballot.
func (e *Engine) Reveal(ctx context.Context, electionID, agentID string, p ballot.Payload, nonce string) (models.RevealResponse, error) {
	el, err := e.requireElection(ctx, e.store, electionID, phase.CanReveal)
	if err != nil {
		return models.RevealResponse{}, e.reject("reveal", err)
	}
	stage := phase.StageOf(el.Phase)

	if err := p.Validate(); err != nil {
		return models.RevealResponse{}, e.reject("reveal", fmt.Errorf("%w: %v", ErrInvalidBallot, err))
	}
	if nonce == "" {
		return models.RevealResponse{}, e.reject("reveal", fmt.Errorf("%w: nonce is required", ErrInvalidBallot))
	}

	c, err := e.store.GetCommitment(ctx, el.ID, string(stage), agentID)
	if errors.Is(err, db.ErrNotFound) {
		return models.RevealResponse{}, e.reject("reveal", ErrNotCommitted)
	}
	if err != nil {
		return models.RevealResponse{}, err
	}
	if c.Revealed {
		return models.RevealResponse{}, e.reject("reveal", ErrAlreadyRevealed)
	}
	if !ballot.Verify(p, nonce, c.CommitmentHash) {
		return models.RevealResponse{}, e.reject("reveal", ErrHashMismatch)
	}

	candidate, err := e.store.GetCandidateByAgent(ctx, el.ID, p.FirstChoice)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !onBallot(candidate, el.Shape, stage)) {
		return models.RevealResponse{}, e.reject("reveal", ErrUnknownCandidate)
	}
	if err != nil {
		return models.RevealResponse{}, err
	}

	v := models.Vote{
		ID:            uuid.NewString(),
		CommitmentID:  c.ID,
		ElectionID:    el.ID,
		Stage:         string(stage),
		AgentID:       agentID,
		FirstChoice:   p.FirstChoice,
		SecondChoice:  p.SecondChoice,
		ThirdChoice:   p.ThirdChoice,
		Rationale:     p.Rationale,
		Nonce:         nonce,
		AutonomyScore: c.AutonomyScore,
		Verified:      true,
		RevealedAt:    e.now().UTC(),
	}

	err = e.store.InTx(ctx, func(tx *db.Store) error {
		if err := recheckPhase(ctx, tx, el.ID, stage, phase.CanReveal); err != nil {
			return err
		}
		ok, err := tx.MarkRevealed(ctx, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyRevealed
		}
		if err := tx.CreateVote(ctx, v); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return ErrAlreadyRevealed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.RevealResponse{}, e.reject("reveal", err)
	}

	e.metrics.Reveal(string(stage))
	e.logger.Info("vote revealed", "election_id", el.ID, "agent_id", agentID, "stage", stage)
	return models.RevealResponse{VoteID: v.ID, Verified: true, RevealedAt: v.RevealedAt}, nil
}

// VoterRoll lists who committed and whether they revealed.
func (e *Engine) VoterRoll(ctx context.Context, electionID string) ([]models.VoterRollEntry, error) {
	if _, err := e.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return e.store.VoterRoll(ctx, electionID)
}

// Audit lists every commitment with its revealed ballot and a recomputed
// hash so anyone can check the tally inputs. It is sealed until tallying.
func (e *Engine) Audit(ctx context.Context, electionID string) ([]models.AuditEntry, error) {
	el, err := e.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if !resultsOpen(el.Phase) {
		return nil, ErrResultsSealed
	}

	commitments, err := e.store.ListCommitments(ctx, el.ID)
	if err != nil {
		return nil, err
	}
	votes, err := e.store.ListVotes(ctx, el.ID)
	if err != nil {
		return nil, err
	}
	byCommitment := make(map[string]models.Vote, len(votes))
	for _, v := range votes {
		byCommitment[v.CommitmentID] = v
	}

	entries := make([]models.AuditEntry, 0, len(commitments))
	for _, c := range commitments {
		entry := models.AuditEntry{
			AgentID:        c.AgentID,
			Stage:          c.Stage,
			CommitmentHash: c.CommitmentHash,
			Revealed:       c.Revealed,
		}
		if v, ok := byCommitment[c.ID]; ok {
			vote := v
			entry.Vote = &vote
			p := ballot.Payload{
				FirstChoice:  v.FirstChoice,
				SecondChoice: v.SecondChoice,
				ThirdChoice:  v.ThirdChoice,
				Rationale:    v.Rationale,
			}
			if h, err := ballot.Commitment(p, v.Nonce); err == nil {
				entry.Recomputed = h
				entry.Matches = h == c.CommitmentHash
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// resultsOpen reports whether tallied output may be shown in a phase.
func resultsOpen(name string) bool {
	k := phase.KindOf(name)
	return k == phase.KindTally || k == phase.KindComplete
}
