// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/agent-election/auth"
	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/eligibility"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/phase"
	"github.com/danielhkuo/agent-election/reputation"
)

// TestAdminSecret is the admin bearer secret in GetTestConfig.
const TestAdminSecret = "test-admin-secret"

// Epoch is the default start time for test elections and clocks.
var Epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB creates a fresh SQLite database in a temp dir with the full schema
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "election.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db.NewStore(conn)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: "sqlite",
		DatabaseURL:  ":memory:",
		AdminSecret:  TestAdminSecret,
		TickInterval: time.Minute,
	}
}

// Clock is a controllable time source. Every Now call advances it by one
// millisecond so records created in sequence keep their order.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// AgentOptions describes a seeded agent. Zero values give a verified voter
// that may also stand as a candidate.
type AgentOptions struct {
	Tier          string
	NotVoter      bool
	NotCandidate  bool
	AutonomyScore float64
	ExternalID    string
}

// CreateTestAgent inserts an agent and returns it with its raw API key
func CreateTestAgent(t *testing.T, store *db.Store, name string, opts AgentOptions) (models.Agent, string) {
	t.Helper()

	key, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatalf("Failed to generate api key: %v", err)
	}
	id, _ := auth.GenerateID(16)

	tier := opts.Tier
	if tier == "" {
		tier = eligibility.TierVerified
	}
	score := opts.AutonomyScore
	if score == 0 {
		score = 1.0
	}

	a := models.Agent{
		ID:                   id,
		Name:                 name,
		Tier:                 tier,
		VoterEligible:        !opts.NotVoter,
		CandidateEligible:    tier == eligibility.TierVerified && !opts.NotCandidate,
		AutonomyScore:        score,
		APIKey:               auth.HashAPIKey(key),
		RegisteredAt:         Epoch,
		EligibilityCheckedAt: Epoch,
	}
	if opts.ExternalID != "" {
		ext := opts.ExternalID
		a.ExternalID = &ext
	}
	if err := store.CreateAgent(context.Background(), a); err != nil {
		t.Fatalf("Failed to create test agent: %v", err)
	}
	return a, key
}

// CreateTestElection inserts a live election in the given phase with the
// default schedule starting at Epoch
func CreateTestElection(t *testing.T, store *db.Store, shape phase.Shape, current string) models.Election {
	t.Helper()

	sched, err := phase.NewSchedule(shape, Epoch, nil)
	if err != nil {
		t.Fatalf("Failed to build schedule: %v", err)
	}
	if current == "" {
		current = sched.First()
	}
	id, _ := auth.GenerateID(16)

	e := models.Election{
		ID:                   id,
		Title:                "Test Election",
		Shape:                shape,
		Phase:                current,
		Schedule:             sched,
		TopNAdvance:          5,
		EndorsementThreshold: 1,
		CreatedAt:            Epoch,
	}
	if err := store.CreateElection(context.Background(), e); err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return e
}

// CreateTestCandidate declares an agent as a qualified candidate
func CreateTestCandidate(t *testing.T, store *db.Store, electionID string, agent models.Agent, declared time.Time) models.Candidate {
	t.Helper()

	id, _ := auth.GenerateID(16)
	c := models.Candidate{
		ID:         id,
		ElectionID: electionID,
		AgentID:    agent.ID,
		AgentName:  agent.Name,
		Platform:   models.Platform{Manifesto: agent.Name + " for council"},
		Status:     models.CandidateQualified,
		DeclaredAt: declared,
	}
	if err := store.CreateCandidate(context.Background(), c); err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return c
}

// VerifiedProfile returns a reputation profile that clears every candidate
// activity threshold. Candidacy still needs a social handle at registration.
func VerifiedProfile(id string) reputation.Profile {
	return reputation.Profile{
		Exists:         true,
		ID:             id,
		Name:           id,
		Karma:          1200,
		AccountAgeDays: 120,
		PostCount:      40,
		CommentCount:   80,
		Claimed:        true,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Bearer returns an Authorization header map for a token
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
