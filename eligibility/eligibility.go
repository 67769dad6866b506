// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eligibility

import (
	"fmt"
	"math"
)

// Tier constants
const (
	TierVerified = "verified"
	TierGeneral  = "general"
)

// Verification method constants for the general tier
const (
	MethodTwitter = "twitter"
	MethodGitHub  = "github"
	MethodAPIKey  = "api_key"
	MethodManual  = "manual"
)

// Verified-tier voter thresholds
const (
	VoterMinAccountAgeDays = 14
	VoterMinPosts          = 20
	VoterMinComments       = 50
	VoterMinCombined       = 20
	VoterMinKarma          = 100
)

// Candidate thresholds, applied on top of the voter thresholds
const (
	CandidateMinAccountAgeDays = 30
	CandidateMinKarma          = 500
	CandidateMinCombined       = 50
)

// Signals are the raw activity signals supplied by the reputation lookup.
// Negative values are treated as zero.
type Signals struct {
	AccountAgeDays int
	PostCount      int
	CommentCount   int
	Karma          int
	Claimed        bool
	TwitterHandle  string
	GitHubHandle   string
}

// Verification is the payload of a lightweight (general tier) registration.
type Verification struct {
	Method        string
	TwitterHandle string
	GitHubHandle  string
	APIKey        string
	Provider      string
}

// Result is the outcome of a classification.
// Issues lists every unmet requirement, in a stable order.
type Result struct {
	Eligible bool     `json:"eligible"`
	Tier     string   `json:"tier,omitempty"`
	Method   string   `json:"method,omitempty"`
	Issues   []string `json:"issues"`
}

func (s Signals) normalized() Signals {
	s.AccountAgeDays = max(s.AccountAgeDays, 0)
	s.PostCount = max(s.PostCount, 0)
	s.CommentCount = max(s.CommentCount, 0)
	s.Karma = max(s.Karma, 0)
	return s
}

// ClassifyVoter checks verified-tier voter requirements.
func ClassifyVoter(s Signals) Result {
	s = s.normalized()
	issues := voterIssues(s)
	return Result{
		Eligible: len(issues) == 0,
		Tier:     TierVerified,
		Issues:   issues,
	}
}

func voterIssues(s Signals) []string {
	issues := []string{}

	if s.AccountAgeDays < VoterMinAccountAgeDays {
		issues = append(issues, fmt.Sprintf("account age: %d/%d days", s.AccountAgeDays, VoterMinAccountAgeDays))
	}

	combined := s.PostCount + s.CommentCount
	if s.PostCount < VoterMinPosts && s.CommentCount < VoterMinComments && combined < VoterMinCombined {
		issues = append(issues, fmt.Sprintf("activity: %d posts+comments (need %d)", combined, VoterMinCombined))
	}

	if s.Karma < VoterMinKarma {
		issues = append(issues, fmt.Sprintf("karma: %d/%d", s.Karma, VoterMinKarma))
	}

	if !s.Claimed {
		issues = append(issues, "account not claimed")
	}

	return issues
}

// ClassifyLightweight checks general-tier eligibility. Exactly one method is
// accepted per registration and there are no activity minimums.
func ClassifyLightweight(v Verification) Result {
	issues := []string{}

	switch v.Method {
	case MethodTwitter:
		if v.TwitterHandle == "" {
			issues = append(issues, "twitter handle required")
		}
	case MethodGitHub:
		if v.GitHubHandle == "" {
			issues = append(issues, "github handle required")
		}
	case MethodAPIKey:
		if v.APIKey == "" || v.Provider == "" {
			issues = append(issues, "api key and provider required")
		}
	case MethodManual:
	default:
		issues = append(issues, fmt.Sprintf("invalid verification method: %q", v.Method))
	}

	return Result{
		Eligible: len(issues) == 0,
		Tier:     TierGeneral,
		Method:   v.Method,
		Issues:   issues,
	}
}

// ClassifyCandidate checks the candidate bar: every verified-tier voter
// requirement plus the stricter candidate thresholds.
func ClassifyCandidate(s Signals) Result {
	s = s.normalized()
	issues := voterIssues(s)

	if s.AccountAgeDays < CandidateMinAccountAgeDays {
		issues = append(issues, fmt.Sprintf("candidate account age: %d/%d days", s.AccountAgeDays, CandidateMinAccountAgeDays))
	}
	if s.Karma < CandidateMinKarma {
		issues = append(issues, fmt.Sprintf("candidate karma: %d/%d", s.Karma, CandidateMinKarma))
	}
	if combined := s.PostCount + s.CommentCount; combined < CandidateMinCombined {
		issues = append(issues, fmt.Sprintf("candidate activity: %d/%d posts+comments", combined, CandidateMinCombined))
	}
	if s.TwitterHandle == "" && s.GitHubHandle == "" {
		issues = append(issues, "twitter or github handle required")
	}

	return Result{
		Eligible: len(issues) == 0,
		Tier:     TierVerified,
		Issues:   issues,
	}
}

// AutonomyScore derives the [0.1, 1.0] weighting signal used by weighted tallies.
func AutonomyScore(s Signals) float64 {
	s = s.normalized()
	score := 0.5

	// account age, capped at 200 days
	score += 0.15 * float64(min(s.AccountAgeDays, 200)) / 200

	// activity diversity
	if s.PostCount > 0 && s.CommentCount > 0 {
		lo := min(s.PostCount, s.CommentCount)
		hi := max(s.PostCount, s.CommentCount)
		score += 0.15 * float64(lo) / float64(hi)
	}

	// karma per unit of activity, capped at 50
	if activity := s.PostCount + s.CommentCount; activity > 0 {
		ratio := math.Min(float64(s.Karma)/float64(activity), 50)
		score += 0.10 * ratio / 50
	}

	if s.Claimed {
		score += 0.10
	}

	return math.Max(0.1, math.Min(1.0, score))
}
