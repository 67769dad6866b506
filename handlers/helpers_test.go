// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/agent-election/ballot"
	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/middleware"
	"github.com/danielhkuo/agent-election/models"
	"github.com/danielhkuo/agent-election/reputation"
	"github.com/danielhkuo/agent-election/testutil"
)

type testEnv struct {
	store  *db.Store
	rep    *reputation.Static
	engine *election.Engine
	cfg    cliparse.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: testutil.SetupTestDB(t),
		rep:   reputation.NewStatic(),
		cfg:   testutil.GetTestConfig(),
	}
	env.engine = election.New(election.Config{
		Store:      env.store,
		Reputation: env.rep,
		Now:        testutil.NewClock(testutil.Epoch).Now,
	})
	return env
}

// asAgent attaches a to the request the way middleware.RequireAgent does.
func asAgent(req *http.Request, a models.Agent) *http.Request {
	return req.WithContext(middleware.WithAgent(req.Context(), a))
}

// serve runs fn against req with the given path values set.
func serve(fn http.HandlerFunc, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

// openElection creates an election through the engine and advances it to
// target.
func (env *testEnv) openElection(t *testing.T, target string) models.Election {
	t.Helper()
	ctx := context.Background()
	el, err := env.engine.CreateElection(ctx, election.CreateElectionParams{
		Title:                "Council",
		StartsAt:             testutil.Epoch,
		EndorsementThreshold: 1,
	})
	if err != nil {
		t.Fatalf("CreateElection() error = %v", err)
	}
	for el.Phase != target {
		if el, err = env.engine.Advance(ctx, el.ID); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
	return el
}

func revealBody(p ballot.Payload, nonce string) models.RevealRequest {
	var req models.RevealRequest
	req.VoteData.FirstChoice = p.FirstChoice
	req.VoteData.SecondChoice = p.SecondChoice
	req.VoteData.ThirdChoice = p.ThirdChoice
	req.VoteData.Rationale = p.Rationale
	req.Nonce = nonce
	return req
}
