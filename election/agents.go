// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/agent-election/auth"
	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/eligibility"
	"github.com/danielhkuo/agent-election/models"
)

// MaxAgentNameLength bounds names supplied at general registration.
const MaxAgentNameLength = 64

// classify applies the verified-tier rules to an agent's stored signals.
func classify(a *models.Agent) (voter, candidacy eligibility.Result) {
	s := a.Signals()
	voter = eligibility.ClassifyVoter(s)
	candidacy = eligibility.ClassifyCandidate(s)
	a.VoterEligible = voter.Eligible
	a.CandidateEligible = candidacy.Eligible
	a.AutonomyScore = eligibility.AutonomyScore(s)
	return voter, candidacy
}

func applyProfile(a *models.Agent, s eligibility.Signals) {
	a.Karma = s.Karma
	a.AccountAgeDays = s.AccountAgeDays
	a.PostCount = s.PostCount
	a.CommentCount = s.CommentCount
	a.Claimed = s.Claimed
}

// RegisterAgent registers a verified-tier agent using the signals the
// reputation service reports for externalID. The returned API key is not
// stored and cannot be recovered.
func (e *Engine) RegisterAgent(ctx context.Context, req models.RegisterAgentRequest) (models.RegisterAgentResponse, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return models.RegisterAgentResponse{}, fmt.Errorf("%w: external_id is required", ErrInvalidInput)
	}

	if _, err := e.store.GetAgentByExternalID(ctx, externalID); err == nil {
		return models.RegisterAgentResponse{}, ErrAlreadyRegistered
	} else if !errors.Is(err, db.ErrNotFound) {
		return models.RegisterAgentResponse{}, err
	}

	profile, err := e.rep.Lookup(ctx, externalID)
	if err != nil {
		return models.RegisterAgentResponse{}, fmt.Errorf("%w: %v", ErrReputationUnavailable, err)
	}

	now := e.now().UTC()
	agent := models.Agent{
		ID:                   uuid.NewString(),
		ExternalID:           &externalID,
		Name:                 externalID,
		Tier:                 eligibility.TierVerified,
		TwitterHandle:        strings.TrimSpace(req.TwitterHandle),
		GitHubHandle:         strings.TrimSpace(req.GitHubHandle),
		RegisteredAt:         now,
		EligibilityCheckedAt: now,
	}
	if profile.Exists && profile.Name != "" {
		agent.Name = profile.Name
	}
	applyProfile(&agent, profile.Signals())
	voter, candidacy := classify(&agent)

	key, err := auth.GenerateAPIKey()
	if err != nil {
		return models.RegisterAgentResponse{}, err
	}
	agent.APIKey = auth.HashAPIKey(key)

	if err := e.store.CreateAgent(ctx, agent); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return models.RegisterAgentResponse{}, ErrAlreadyRegistered
		}
		return models.RegisterAgentResponse{}, err
	}

	e.logger.Info("agent registered",
		"agent_id", agent.ID,
		"tier", agent.Tier,
		"voter_eligible", agent.VoterEligible,
		"candidate_eligible", agent.CandidateEligible,
	)
	return models.RegisterAgentResponse{
		Agent:       agent,
		APIKey:      key,
		Eligibility: voter,
		Candidacy:   candidacy,
	}, nil
}

// RegisterGeneral registers a general-tier agent through lightweight
// verification. General agents vote only in the general stage and cannot
// stand as candidates.
func (e *Engine) RegisterGeneral(ctx context.Context, req models.RegisterGeneralRequest) (models.RegisterAgentResponse, error) {
	name := strings.TrimSpace(req.AgentName)
	if name == "" {
		return models.RegisterAgentResponse{}, fmt.Errorf("%w: agent_name is required", ErrInvalidInput)
	}
	if len(name) > MaxAgentNameLength {
		return models.RegisterAgentResponse{}, fmt.Errorf("%w: agent_name exceeds %d characters", ErrInvalidInput, MaxAgentNameLength)
	}

	v := eligibility.Verification{
		Method:        strings.TrimSpace(req.Method),
		TwitterHandle: strings.TrimSpace(req.Data["twitter_handle"]),
		GitHubHandle:  strings.TrimSpace(req.Data["github_handle"]),
		APIKey:        strings.TrimSpace(req.Data["api_key"]),
		Provider:      strings.TrimSpace(req.Data["provider"]),
	}
	res := eligibility.ClassifyLightweight(v)
	if !res.Eligible {
		return models.RegisterAgentResponse{}, notEligible(res.Issues)
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		return models.RegisterAgentResponse{}, err
	}

	now := e.now().UTC()
	agent := models.Agent{
		ID:                   uuid.NewString(),
		Name:                 name,
		Tier:                 eligibility.TierGeneral,
		VoterEligible:        true,
		AutonomyScore:        eligibility.AutonomyScore(eligibility.Signals{}),
		TwitterHandle:        v.TwitterHandle,
		GitHubHandle:         v.GitHubHandle,
		VerificationMethod:   v.Method,
		APIKey:               auth.HashAPIKey(key),
		RegisteredAt:         now,
		EligibilityCheckedAt: now,
	}
	if err := e.store.CreateAgent(ctx, agent); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return models.RegisterAgentResponse{}, ErrAlreadyRegistered
		}
		return models.RegisterAgentResponse{}, err
	}

	e.logger.Info("agent registered", "agent_id", agent.ID, "tier", agent.Tier, "method", v.Method)
	return models.RegisterAgentResponse{
		Agent:       agent,
		APIKey:      key,
		Eligibility: res,
		Candidacy: eligibility.Result{
			Tier:   eligibility.TierGeneral,
			Issues: []string{"candidacy requires the verified tier"},
		},
	}, nil
}

// Authenticate resolves a bearer API key to its agent.
func (e *Engine) Authenticate(ctx context.Context, key string) (models.Agent, error) {
	a, err := e.store.GetAgentByAPIKey(ctx, auth.HashAPIKey(key))
	if errors.Is(err, db.ErrNotFound) {
		return models.Agent{}, ErrAgentNotFound
	}
	return a, err
}

// GetAgent loads an agent.
func (e *Engine) GetAgent(ctx context.Context, id string) (models.Agent, error) {
	return loadAgent(ctx, e.store, id)
}

// RefreshEligibility re-reads a verified agent's signals from the
// reputation service and reclassifies it. Commitments already made keep the
// autonomy score recorded at commit time.
func (e *Engine) RefreshEligibility(ctx context.Context, agentID string) (models.EligibilityResponse, error) {
	agent, err := loadAgent(ctx, e.store, agentID)
	if err != nil {
		return models.EligibilityResponse{}, err
	}

	if agent.Tier != eligibility.TierVerified || agent.ExternalID == nil {
		return models.EligibilityResponse{
			Agent: agent,
			Voter: eligibility.Result{
				Eligible: agent.VoterEligible,
				Tier:     agent.Tier,
				Method:   agent.VerificationMethod,
				Issues:   []string{},
			},
			Candidacy: eligibility.Result{
				Tier:   agent.Tier,
				Issues: []string{"candidacy requires the verified tier"},
			},
		}, nil
	}

	profile, err := e.rep.Lookup(ctx, *agent.ExternalID)
	if err != nil {
		return models.EligibilityResponse{}, fmt.Errorf("%w: %v", ErrReputationUnavailable, err)
	}
	applyProfile(&agent, profile.Signals())
	voter, candidacy := classify(&agent)
	agent.EligibilityCheckedAt = e.now().UTC()

	if err := e.store.UpdateAgentSignals(ctx, agent); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.EligibilityResponse{}, ErrAgentNotFound
		}
		return models.EligibilityResponse{}, err
	}

	e.logger.Info("eligibility refreshed",
		"agent_id", agent.ID,
		"voter_eligible", agent.VoterEligible,
		"candidate_eligible", agent.CandidateEligible,
	)
	return models.EligibilityResponse{Agent: agent, Voter: voter, Candidacy: candidacy}, nil
}
