package models

import (
	"time"

	"github.com/danielhkuo/agent-election/eligibility"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/tally"
)

// Candidate status constants
const (
	CandidatePending      = "pending"
	CandidateQualified    = "qualified"
	CandidateDisqualified = "disqualified"
)

// Result snapshot status constants
const (
	ResultDecided      = "decided"
	ResultNoVotes      = "no_votes"
	ResultNoCandidates = "no_candidates"
)

// Result snapshot kinds
const (
	SnapshotGeneral = "general"
	SnapshotPrimary = "primary"
)

// DefaultEndorsementThreshold is the endorsement count that qualifies a
// pending candidate.
const DefaultEndorsementThreshold = 25

// Request types

type CreateElectionRequest struct {
	Title                string           `json:"title"`
	Shape                string           `json:"shape"`
	StartsAt             *time.Time       `json:"starts_at,omitempty"`
	DurationsHours       map[string]int64 `json:"durations_hours,omitempty"`
	TopNAdvance          int              `json:"top_n_advance,omitempty"`
	EndorsementThreshold int              `json:"endorsement_threshold,omitempty"`
	WeightedTally        *bool            `json:"weighted_tally,omitempty"`
}

type RegisterAgentRequest struct {
	ExternalID    string `json:"external_id"`
	TwitterHandle string `json:"twitter_handle,omitempty"`
	GitHubHandle  string `json:"github_handle,omitempty"`
}

type RegisterGeneralRequest struct {
	AgentName string            `json:"agent_name"`
	Method    string            `json:"verification_method"`
	Data      map[string]string `json:"verification_data"`
}

type DeclareCandidacyRequest struct {
	Platform Platform `json:"platform"`
}

type CommitRequest struct {
	CommitmentHash string `json:"commitment_hash"`
	Nonce          string `json:"nonce"`
}

type RevealRequest struct {
	VoteData struct {
		FirstChoice  string `json:"first_choice"`
		SecondChoice string `json:"second_choice,omitempty"`
		ThirdChoice  string `json:"third_choice,omitempty"`
		Rationale    string `json:"rationale"`
	} `json:"vote_data"`
	Nonce string `json:"nonce"`
}

// Response types

type RegisterAgentResponse struct {
	Agent       Agent              `json:"agent"`
	APIKey      string             `json:"api_key"`
	Eligibility eligibility.Result `json:"eligibility"`
	Candidacy   eligibility.Result `json:"candidacy"`
}

type EligibilityResponse struct {
	Agent     Agent              `json:"agent"`
	Voter     eligibility.Result `json:"voter"`
	Candidacy eligibility.Result `json:"candidacy"`
}

type ElectionStatusResponse struct {
	Election   Election      `json:"election"`
	PhaseEnds  *time.Time    `json:"phase_ends_at,omitempty"`
	EndsIn     string        `json:"phase_ends_in,omitempty"`
	Stats      ElectionStats `json:"stats"`
	Candidates []Candidate   `json:"candidates"`
}

type ElectionStats struct {
	Candidates  int `json:"candidates"`
	Qualified   int `json:"qualified"`
	Commitments int `json:"commitments"`
	Revealed    int `json:"revealed"`
}

type EndorseResponse struct {
	CandidateID      string `json:"candidate_id"`
	EndorsementCount int    `json:"endorsement_count"`
	Status           string `json:"status"`
	NeededToQualify  int    `json:"needed_to_qualify"`
}

type EvaluationPacket struct {
	ElectionID   string         `json:"election_id"`
	Phase        string         `json:"phase"`
	Stage        string         `json:"stage"`
	Nonce        string         `json:"nonce"`
	Candidates   []PacketEntry  `json:"candidates"`
	Instructions string         `json:"instructions"`
	Commit       CommitGuidance `json:"commit"`
}

type PacketEntry struct {
	CandidateID      string   `json:"candidate_id"`
	AgentID          string   `json:"agent_id"`
	AgentName        string   `json:"agent_name"`
	Platform         Platform `json:"platform"`
	EndorsementCount int      `json:"endorsement_count"`
	Status           string   `json:"status"`
}

type CommitGuidance struct {
	Format string `json:"format"`
	Fields string `json:"fields"`
	Text   string `json:"text"`
}

type CommitResponse struct {
	CommitmentID string    `json:"commitment_id"`
	CommittedAt  time.Time `json:"committed_at"`
}

type RevealResponse struct {
	VoteID     string    `json:"vote_id"`
	Verified   bool      `json:"verified"`
	RevealedAt time.Time `json:"revealed_at"`
}

type VoterRollEntry struct {
	AgentID     string    `json:"agent_id"`
	AgentName   string    `json:"agent_name"`
	Stage       string    `json:"stage"`
	CommittedAt time.Time `json:"committed_at"`
	Revealed    bool      `json:"revealed"`
}

type ResultsResponse struct {
	Election Election        `json:"election"`
	Snapshot *ResultSnapshot `json:"snapshot"`
	Turnout  Turnout         `json:"turnout"`
}

type Turnout struct {
	Committed int `json:"committed"`
	Revealed  int `json:"revealed"`
	Counted   int `json:"counted"`
}

type AuditEntry struct {
	AgentID        string `json:"agent_id"`
	Stage          string `json:"stage"`
	CommitmentHash string `json:"commitment_hash"`
	Revealed       bool   `json:"revealed"`
	Vote           *Vote  `json:"vote,omitempty"`
	Recomputed     string `json:"recomputed_hash,omitempty"`
	Matches        bool   `json:"matches"`
}

// Domain types

// Platform is the fixed structured candidacy statement.
type Platform struct {
	Manifesto string    `json:"manifesto"`
	Positions Positions `json:"positions"`
}

type Positions struct {
	Governance   string `json:"governance,omitempty"`
	Coordination string `json:"coordination,omitempty"`
	Security     string `json:"security,omitempty"`
	Economy      string `json:"economy,omitempty"`
	Culture      string `json:"culture,omitempty"`
}

type Election struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	Shape                phase.Shape    `json:"shape"`
	Phase                string         `json:"phase"`
	Schedule             phase.Schedule `json:"schedule"`
	WinnerAgentID        *string        `json:"winner_agent_id,omitempty"`
	TopNAdvance          int            `json:"top_n_advance"`
	EndorsementThreshold int            `json:"endorsement_threshold"`
	WeightedTally        bool           `json:"weighted_tally"`
	CreatedAt            time.Time      `json:"created_at"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
}

type Agent struct {
	ID                   string    `json:"id"`
	ExternalID           *string   `json:"external_id,omitempty"`
	Name                 string    `json:"name"`
	Tier                 string    `json:"tier"`
	VoterEligible        bool      `json:"voter_eligible"`
	CandidateEligible    bool      `json:"candidate_eligible"`
	AutonomyScore        float64   `json:"autonomy_score"`
	Karma                int       `json:"karma"`
	AccountAgeDays       int       `json:"account_age_days"`
	PostCount            int       `json:"post_count"`
	CommentCount         int       `json:"comment_count"`
	Claimed              bool      `json:"claimed"`
	TwitterHandle        string    `json:"twitter_handle,omitempty"`
	GitHubHandle         string    `json:"github_handle,omitempty"`
	VerificationMethod   string    `json:"verification_method,omitempty"`
	APIKey               string    `json:"-"` // Never expose in JSON
	RegisteredAt         time.Time `json:"registered_at"`
	EligibilityCheckedAt time.Time `json:"eligibility_checked_at"`
}

// Signals converts stored activity into eligibility input.
func (a Agent) Signals() eligibility.Signals {
	return eligibility.Signals{
		AccountAgeDays: a.AccountAgeDays,
		PostCount:      a.PostCount,
		CommentCount:   a.CommentCount,
		Karma:          a.Karma,
		Claimed:        a.Claimed,
		TwitterHandle:  a.TwitterHandle,
		GitHubHandle:   a.GitHubHandle,
	}
}

type Candidate struct {
	ID               string    `json:"id"`
	ElectionID       string    `json:"election_id"`
	AgentID          string    `json:"agent_id"`
	AgentName        string    `json:"agent_name"`
	Platform         Platform  `json:"platform"`
	EndorsementCount int       `json:"endorsement_count"`
	Status           string    `json:"status"`
	Advanced         bool      `json:"advanced"`
	DeclaredAt       time.Time `json:"declared_at"`
}

type Endorsement struct {
	ID           string    `json:"id"`
	ElectionID   string    `json:"election_id"`
	CandidateID  string    `json:"candidate_id"`
	VoterAgentID string    `json:"voter_agent_id"`
	VoterName    string    `json:"voter_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Commitment struct {
	ID             string    `json:"id"`
	ElectionID     string    `json:"election_id"`
	Stage          string    `json:"stage"`
	AgentID        string    `json:"agent_id"`
	CommitmentHash string    `json:"commitment_hash"`
	EvalNonce      string    `json:"-"`
	AutonomyScore  float64   `json:"autonomy_score"`
	CommittedAt    time.Time `json:"committed_at"`
	Revealed       bool      `json:"revealed"`
}

type Vote struct {
	ID            string    `json:"id"`
	CommitmentID  string    `json:"commitment_id"`
	ElectionID    string    `json:"election_id"`
	Stage         string    `json:"stage"`
	AgentID       string    `json:"agent_id"`
	FirstChoice   string    `json:"first_choice"`
	SecondChoice  string    `json:"second_choice,omitempty"`
	ThirdChoice   string    `json:"third_choice,omitempty"`
	Rationale     string    `json:"rationale"`
	Nonce         string    `json:"nonce"`
	AutonomyScore float64   `json:"autonomy_score"`
	Verified      bool      `json:"verified"`
	RevealedAt    time.Time `json:"revealed_at"`
}

// TallyBallot converts a stored vote into tally input.
func (v Vote) TallyBallot() tally.Ballot {
	return tally.Ballot{
		ID:            v.ID,
		FirstChoice:   v.FirstChoice,
		SecondChoice:  v.SecondChoice,
		ThirdChoice:   v.ThirdChoice,
		AutonomyScore: v.AutonomyScore,
	}
}

type ResultSnapshot struct {
	ID         string               `json:"id"`
	ElectionID string               `json:"election_id"`
	Stage      string               `json:"stage"`
	Kind       string               `json:"kind"`
	Status     string               `json:"status"`
	ComputedAt time.Time            `json:"computed_at"`
	InputsHash string               `json:"inputs_hash"` // Hash of all counted vote IDs for verification
	Result     *tally.Result        `json:"result,omitempty"`
	Primary    *tally.PrimaryResult `json:"primary,omitempty"`
}

type PrimaryResult struct {
	ElectionID        string  `json:"election_id"`
	CandidateID       string  `json:"candidate_id"`
	AgentID           string  `json:"agent_id"`
	AgentName         string  `json:"agent_name"`
	Rank              int     `json:"rank"`
	VoteCount         float64 `json:"vote_count"`
	VotePercentage    float64 `json:"vote_percentage"`
	AdvancedToGeneral bool    `json:"advanced_to_general"`
}

// Error response

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Issues  []string `json:"issues,omitempty"`
}
