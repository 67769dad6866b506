// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/agent-election/ballot"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/testutil"
)

// TestConcurrentCommitSubmissions verifies that simultaneous commits from
// different voters through the HTTP layer all succeed without loss.
func TestConcurrentCommitSubmissions(t *testing.T) {
	env, handler, el, cand, _ := votingSetup(t)

	numVoters := 10
	voters := make([]models.Agent, numVoters)
	nonces := make([]string, numVoters)

	// Pre-create all voters and their packets
	for i := 0; i < numVoters; i++ {
		voters[i], _ = testutil.CreateTestAgent(t, env.store, "ConcurrentVoter"+string(rune('A'+i)), testutil.AgentOptions{NotCandidate: true})
		nonces[i] = fetchPacket(t, handler, el.ID, voters[i]).Nonce
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			p := ballot.Payload{FirstChoice: cand.ID, Rationale: "concurrent"}
			hash, err := ballot.Commitment(p, "secret")
			if err != nil {
				return
			}
			req := asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/commit",
				models.CommitRequest{CommitmentHash: hash, Nonce: nonces[voterIdx]}, nil), voters[voterIdx])
			w := serve(handler.Commit, req, "id", el.ID)

			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful commits, got %d", numVoters, successCount.Load())
	}

	roll, err := env.engine.VoterRoll(t.Context(), el.ID)
	if err != nil {
		t.Fatalf("VoterRoll() error = %v", err)
	}
	if len(roll) != numVoters {
		t.Errorf("Expected %d voter roll entries, got %d", numVoters, len(roll))
	}
}

// TestConcurrentEndorsements verifies the endorsement count matches the
// number of distinct endorsers under concurrent requests.
func TestConcurrentEndorsements(t *testing.T) {
	env := newTestEnv(t)
	handler := NewCandidateHandler(env.engine, env.cfg)
	el := env.openElection(t, phase.Declaration)

	candAgent, _ := testutil.CreateTestAgent(t, env.store, "popular", testutil.AgentOptions{})
	c, err := env.engine.Declare(t.Context(), el.ID, candAgent.ID, models.Platform{Manifesto: "everyone's pick"})
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}

	numEndorsers := 8
	endorsers := make([]models.Agent, numEndorsers)
	for i := range endorsers {
		endorsers[i], _ = testutil.CreateTestAgent(t, env.store, "Endorser"+string(rune('A'+i)), testutil.AgentOptions{NotCandidate: true})
	}

	var wg sync.WaitGroup
	for i := 0; i < numEndorsers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			req := asAgent(testutil.MakeRequest("POST", "/candidates/"+c.ID+"/endorse", nil, nil), endorsers[idx])
			serve(handler.Endorse, req, "id", c.ID)
		}(i)
	}
	wg.Wait()

	got, endorsements, err := env.engine.GetCandidate(t.Context(), c.ID)
	if err != nil {
		t.Fatalf("GetCandidate() error = %v", err)
	}
	if got.EndorsementCount != numEndorsers || len(endorsements) != numEndorsers {
		t.Errorf("Expected %d endorsements, got count %d with %d rows", numEndorsers, got.EndorsementCount, len(endorsements))
	}
}
