// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"strings"

	"github.com/danielhkuo/agent-election/tally"
)

var (
	ErrPhaseViolation        = errors.New("operation not allowed in current phase")
	ErrInvalidNonce          = errors.New("invalid nonce")
	ErrNonceUsed             = errors.New("nonce already used")
	ErrNotCommitted          = errors.New("no commitment found")
	ErrAlreadyRevealed       = errors.New("vote already revealed")
	ErrDuplicateCommitment   = errors.New("vote already committed")
	ErrDuplicateEndorsement  = errors.New("candidate already endorsed")
	ErrSelfEndorsement       = errors.New("cannot endorse yourself")
	ErrDuplicateCandidacy    = errors.New("candidacy already declared")
	ErrHashMismatch          = errors.New("verification failed")
	ErrInvalidTransition     = errors.New("election is already complete")
	ErrUnknownCandidate      = errors.New("first choice is not a qualified candidate")
	ErrNotEligible           = errors.New("agent is not eligible")
	ErrElectionActive        = errors.New("an election is already in progress")
	ErrElectionNotFound      = errors.New("election not found")
	ErrAgentNotFound         = errors.New("agent not found")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrInvalidBallot         = errors.New("invalid ballot")
	ErrInvalidInput          = errors.New("invalid input")
	ErrResultsSealed         = errors.New("results are sealed until tallying")
	ErrAlreadyRegistered     = errors.New("agent already registered")
	ErrReputationUnavailable = errors.New("reputation service unavailable")

	ErrNoVotes      = tally.ErrNoVotes
	ErrNoCandidates = tally.ErrNoCandidates
)

// EligibilityError carries the unmet requirements behind ErrNotEligible.
type EligibilityError struct {
	Issues []string
}

func (e *EligibilityError) Error() string {
	if len(e.Issues) == 0 {
		return ErrNotEligible.Error()
	}
	return ErrNotEligible.Error() + ": " + strings.Join(e.Issues, "; ")
}

func (e *EligibilityError) Unwrap() error {
	return ErrNotEligible
}

func notEligible(issues []string) error {
	return &EligibilityError{Issues: issues}
}

// reasons labels rejection metrics. Unlisted errors are not counted.
var reasons = []struct {
	err   error
	label string
}{
	{ErrPhaseViolation, "phase"},
	{ErrNotEligible, "not_eligible"},
	{ErrDuplicateCommitment, "duplicate_commitment"},
	{ErrInvalidNonce, "invalid_nonce"},
	{ErrNonceUsed, "nonce_used"},
	{ErrInvalidBallot, "invalid_ballot"},
	{ErrInvalidInput, "invalid_input"},
	{ErrNotCommitted, "not_committed"},
	{ErrAlreadyRevealed, "already_revealed"},
	{ErrHashMismatch, "hash_mismatch"},
	{ErrUnknownCandidate, "unknown_candidate"},
	{ErrDuplicateEndorsement, "duplicate_endorsement"},
	{ErrSelfEndorsement, "self_endorsement"},
	{ErrDuplicateCandidacy, "duplicate_candidacy"},
}

// reject counts a protocol rejection and returns err unchanged.
func (e *Engine) reject(op string, err error) error {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			e.metrics.Reject(op, r.label)
			break
		}
	}
	return err
}
