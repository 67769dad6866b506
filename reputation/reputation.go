// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package reputation looks up agent activity signals from the external
// reputation service.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/agent-election/eligibility"
)

// Profile is what the reputation service knows about an agent.
type Profile struct {
	Exists         bool
	ID             string
	Name           string
	Karma          int
	AccountAgeDays int
	PostCount      int
	CommentCount   int
	Claimed        bool
}

// Signals converts a profile into eligibility input. A missing profile
// yields all-zero signals.
func (p Profile) Signals() eligibility.Signals {
	if !p.Exists {
		return eligibility.Signals{}
	}
	return eligibility.Signals{
		AccountAgeDays: p.AccountAgeDays,
		PostCount:      p.PostCount,
		CommentCount:   p.CommentCount,
		Karma:          p.Karma,
		Claimed:        p.Claimed,
	}
}

// Lookup resolves an agent identifier. Unknown agents return a Profile with
// Exists false and a nil error; errors are reserved for transport failures.
type Lookup interface {
	Lookup(ctx context.Context, id string) (Profile, error)
}

// Client queries the reputation service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient builds a client for the service at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		now:     time.Now,
	}
}

// agentDoc accepts both snake_case and camelCase field spellings.
type agentDoc struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Karma           int       `json:"karma"`
	PostCount       *int      `json:"post_count"`
	PostCountAlt    *int      `json:"postCount"`
	CommentCount    *int      `json:"comment_count"`
	CommentCountAlt *int      `json:"commentCount"`
	Claimed         bool      `json:"claimed"`
	IsClaimed       bool      `json:"is_claimed"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedAtAlt    time.Time `json:"createdAt"`
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func (c *Client) Lookup(ctx context.Context, id string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/agents/"+url.PathEscape(id), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build reputation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("reputation lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Profile{ID: id}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("reputation lookup: unexpected status %d", resp.StatusCode)
	}

	// Some deployments wrap the document as {"agent": {...}}.
	var raw struct {
		Agent *agentDoc `json:"agent"`
		agentDoc
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Profile{}, fmt.Errorf("decode reputation profile: %w", err)
	}
	doc := raw.agentDoc
	if raw.Agent != nil {
		doc = *raw.Agent
	}

	p := Profile{
		Exists:       true,
		ID:           doc.ID,
		Name:         doc.Name,
		Karma:        doc.Karma,
		PostCount:    firstInt(doc.PostCount, doc.PostCountAlt),
		CommentCount: firstInt(doc.CommentCount, doc.CommentCountAlt),
		Claimed:      doc.Claimed || doc.IsClaimed,
	}
	if p.ID == "" {
		p.ID = id
	}
	if p.Name == "" {
		p.Name = id
	}

	created := doc.CreatedAt
	if created.IsZero() {
		created = doc.CreatedAtAlt
	}
	if !created.IsZero() {
		p.AccountAgeDays = max(int(c.now().Sub(created).Hours()/24), 0)
	}

	return p, nil
}

// Static is an in-memory Lookup for development and tests.
type Static struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewStatic returns a Static seeded with profiles keyed by ID.
func NewStatic(profiles ...Profile) *Static {
	s := &Static{profiles: make(map[string]Profile)}
	for _, p := range profiles {
		s.Put(p)
	}
	return s
}

// Put adds or replaces a profile.
func (s *Static) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Exists = true
	if p.Name == "" {
		p.Name = p.ID
	}
	s.profiles[p.ID] = p
}

func (s *Static) Lookup(_ context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{ID: id}, nil
	}
	return p, nil
}
