// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reputation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientLookup(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/agents/flat":
			w.Write([]byte(`{"id":"flat","name":"Flat","karma":150,"post_count":25,"comment_count":3,"is_claimed":true,"created_at":"2026-04-01T00:00:00Z"}`))
		case "/api/v1/agents/wrapped":
			w.Write([]byte(`{"agent":{"id":"wrapped","name":"Wrapped","karma":10,"postCount":2,"commentCount":7,"claimed":true,"createdAt":"2026-04-21T00:00:00Z"}}`))
		case "/api/v1/agents/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	c.now = func() time.Time { return now }
	ctx := context.Background()

	tests := []struct {
		id      string
		want    Profile
		wantErr bool
	}{
		{"flat", Profile{Exists: true, ID: "flat", Name: "Flat", Karma: 150, AccountAgeDays: 30, PostCount: 25, CommentCount: 3, Claimed: true}, false},
		{"wrapped", Profile{Exists: true, ID: "wrapped", Name: "Wrapped", Karma: 10, AccountAgeDays: 10, PostCount: 2, CommentCount: 7, Claimed: true}, false},
		{"nobody", Profile{ID: "nobody"}, false},
		{"broken", Profile{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := c.Lookup(ctx, tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Lookup() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMissingProfileHasZeroSignals(t *testing.T) {
	s := NewStatic(Profile{ID: "known", Karma: 500, AccountAgeDays: 40, Claimed: true})

	p, err := s.Lookup(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if p.Exists {
		t.Error("unknown profile should not exist")
	}
	sig := p.Signals()
	if sig.Karma != 0 || sig.AccountAgeDays != 0 || sig.Claimed {
		t.Errorf("Signals() = %+v, want zero", sig)
	}

	known, _ := s.Lookup(context.Background(), "known")
	if !known.Exists || known.Name != "known" || known.Signals().Karma != 500 {
		t.Errorf("known profile = %+v", known)
	}
}
