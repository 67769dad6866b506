package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/agent-election/ballot"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/testutil"
)

// votingSetup returns an election in the sealed phase with one qualified
// candidate and an eligible voter.
func votingSetup(t *testing.T) (*testEnv, *VotingHandler, models.Election, models.Agent, models.Agent) {
	t.Helper()
	env := newTestEnv(t)
	handler := NewVotingHandler(env.engine, env.cfg)

	el := env.openElection(t, phase.Declaration)
	cand, _ := testutil.CreateTestAgent(t, env.store, "candidate", testutil.AgentOptions{})
	voter, _ := testutil.CreateTestAgent(t, env.store, "voter", testutil.AgentOptions{NotCandidate: true})
	if _, err := env.engine.Declare(t.Context(), el.ID, cand.ID, models.Platform{Manifesto: "steady hands"}); err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	for el.Phase != phase.Sealed {
		var err error
		if el, err = env.engine.Advance(t.Context(), el.ID); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
	return env, handler, el, cand, voter
}

func fetchPacket(t *testing.T, h *VotingHandler, electionID string, voter models.Agent) models.EvaluationPacket {
	t.Helper()
	req := asAgent(testutil.MakeRequest("GET", "/elections/"+electionID+"/evaluation-packet", nil, nil), voter)
	w := serve(h.EvaluationPacket, req, "id", electionID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var packet models.EvaluationPacket
	testutil.AssertJSON(t, w, &packet)
	return packet
}

func TestEvaluationPacket(t *testing.T) {
	_, handler, el, cand, voter := votingSetup(t)

	packet := fetchPacket(t, handler, el.ID, voter)
	if packet.Nonce == "" {
		t.Error("Expected a nonce in the packet")
	}
	if len(packet.Candidates) != 1 || packet.Candidates[0].AgentID != cand.ID {
		t.Errorf("Expected the declared candidate in the packet, got %+v", packet.Candidates)
	}
	if !strings.Contains(packet.Commit.Format, "sha256") {
		t.Errorf("Expected commit guidance, got %q", packet.Commit.Format)
	}
	if !strings.Contains(packet.Commit.Text, "U+2028") {
		t.Errorf("Expected text rules in commit guidance, got %q", packet.Commit.Text)
	}

	again := fetchPacket(t, handler, el.ID, voter)
	if again.Nonce != packet.Nonce {
		t.Error("Expected the same nonce until it is consumed")
	}

	w := serve(handler.EvaluationPacket, testutil.MakeRequest("GET", "/elections/"+el.ID+"/evaluation-packet", nil, nil), "id", el.ID)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestCommitVote(t *testing.T) {
	env, handler, el, cand, voter := votingSetup(t)
	packet := fetchPacket(t, handler, el.ID, voter)

	hash, err := ballot.Commitment(ballot.Payload{FirstChoice: cand.ID, Rationale: "track record"}, "my-secret")
	if err != nil {
		t.Fatalf("Commitment() error = %v", err)
	}

	ineligible, _ := testutil.CreateTestAgent(t, env.store, "lurker", testutil.AgentOptions{NotVoter: true, NotCandidate: true})

	tests := []struct {
		name           string
		agent          models.Agent
		requestBody    interface{}
		expectedStatus int
	}{
		{"missing hash", voter, models.CommitRequest{Nonce: packet.Nonce}, http.StatusBadRequest},
		{"missing nonce", voter, models.CommitRequest{CommitmentHash: hash}, http.StatusBadRequest},
		{"malformed hash", voter, models.CommitRequest{CommitmentHash: "xyz", Nonce: packet.Nonce}, http.StatusBadRequest},
		{"wrong nonce", voter, models.CommitRequest{CommitmentHash: hash, Nonce: "forged"}, http.StatusBadRequest},
		{"ineligible voter", ineligible, models.CommitRequest{CommitmentHash: hash, Nonce: packet.Nonce}, http.StatusForbidden},
		{"valid commit", voter, models.CommitRequest{CommitmentHash: hash, Nonce: packet.Nonce}, http.StatusCreated},
		{"duplicate commit", voter, models.CommitRequest{CommitmentHash: hash, Nonce: packet.Nonce}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/commit", tt.requestBody, nil), tt.agent)
			w := serve(handler.Commit, req, "id", el.ID)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	w := serve(handler.VoterRoll, testutil.MakeRequest("GET", "/elections/"+el.ID+"/voter-roll", nil, nil), "id", el.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var roll struct {
		Voters []models.VoterRollEntry `json:"voters"`
		Count  int                     `json:"count"`
	}
	testutil.AssertJSON(t, w, &roll)
	if roll.Count != 1 || roll.Voters[0].AgentID != voter.ID || roll.Voters[0].Revealed {
		t.Errorf("Expected one unrevealed entry for voter, got %+v", roll)
	}
}

func TestRevealVote(t *testing.T) {
	env, handler, el, cand, voter := votingSetup(t)
	packet := fetchPacket(t, handler, el.ID, voter)

	payload := ballot.Payload{FirstChoice: cand.ID, Rationale: "track record"}
	hash, _ := ballot.Commitment(payload, "my-secret")

	req := asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/commit",
		models.CommitRequest{CommitmentHash: hash, Nonce: packet.Nonce}, nil), voter)
	testutil.AssertStatus(t, serve(handler.Commit, req, "id", el.ID), http.StatusCreated)

	reveal := func(p ballot.Payload, nonce string) int {
		req := asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/reveal", revealBody(p, nonce), nil), voter)
		return serve(handler.Reveal, req, "id", el.ID).Code
	}

	// Reveals are closed while the election is sealed.
	if code := reveal(payload, "my-secret"); code != http.StatusConflict {
		t.Errorf("Expected 409 during sealed phase, got %d", code)
	}

	if _, err := env.engine.Advance(t.Context(), el.ID); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	if code := reveal(payload, "other-secret"); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a mismatched nonce, got %d", code)
	}
	if code := reveal(ballot.Payload{FirstChoice: cand.ID}, "my-secret"); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a missing rationale, got %d", code)
	}
	if code := reveal(payload, "my-secret"); code != http.StatusOK {
		t.Errorf("Expected 200 for a matching reveal, got %d", code)
	}
	if code := reveal(payload, "my-secret"); code != http.StatusConflict {
		t.Errorf("Expected 409 for a second reveal, got %d", code)
	}

	stranger, _ := testutil.CreateTestAgent(t, env.store, "stranger", testutil.AgentOptions{NotCandidate: true})
	req = asAgent(testutil.MakeRequest("POST", "/elections/"+el.ID+"/reveal", revealBody(payload, "x"), nil), stranger)
	testutil.AssertStatus(t, serve(handler.Reveal, req, "id", el.ID), http.StatusNotFound)
}
