// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally counts ranked ballots by instant-runoff.
package tally

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrNoVotes      = errors.New("no votes to tally")
	ErrNoCandidates = errors.New("no candidates to tally")
)

// Candidate is one roster entry. Roster order is declaration order and
// decides elimination ties.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ballot is a verified revealed ballot. Choices reference Candidate.ID.
// AutonomyScore is only read when weighting is enabled.
type Ballot struct {
	ID            string  `json:"id"`
	FirstChoice   string  `json:"first_choice"`
	SecondChoice  string  `json:"second_choice,omitempty"`
	ThirdChoice   string  `json:"third_choice,omitempty"`
	AutonomyScore float64 `json:"autonomy_score"`
}

// Options controls a tally run. The zero value counts one vote per agent.
type Options struct {
	Weighted bool `json:"weighted"`
}

// Standing is one candidate's tally within a round.
type Standing struct {
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	Weight        float64 `json:"weight"`
	Percentage    float64 `json:"percentage"`
}

// Round records one counting pass, sorted by weight descending.
type Round struct {
	Number        int        `json:"round"`
	Results       []Standing `json:"results"`
	TotalWeight   float64    `json:"total_weight"`
	ActiveBallots int        `json:"active_ballots"`
	Exhausted     int        `json:"exhausted"`
	Eliminated    string     `json:"eliminated,omitempty"`
}

// Winner is the elected candidate.
type Winner struct {
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	Weight        float64 `json:"weight"`
	Percentage    float64 `json:"percentage"`
	ByDefault     bool    `json:"by_default"`
}

// Result is the outcome of an instant-runoff tally.
type Result struct {
	Winner       *Winner `json:"winner"`
	Rounds       []Round `json:"rounds"`
	TotalBallots int     `json:"total_ballots"`
	TotalWeight  float64 `json:"total_weight"`
	Weighted     bool    `json:"weighted"`

	// elimination order, first eliminated first
	eliminated []string
}

type liveBallot struct {
	choices   []string
	pos       int
	weight    float64
	exhausted bool
}

func (b *liveBallot) current() string {
	return b.choices[b.pos]
}

// advance moves the ballot to its next active choice after the current
// position, or exhausts it.
func (b *liveBallot) advance(active map[string]bool) {
	for b.pos++; b.pos < len(b.choices); b.pos++ {
		if active[b.choices[b.pos]] {
			return
		}
	}
	b.exhausted = true
}

// Tally runs instant-runoff over ballots for the given roster.
func Tally(ballots []Ballot, candidates []Candidate, opts Options) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	if len(ballots) == 0 {
		return Result{}, ErrNoVotes
	}

	roster := make([]Candidate, 0, len(candidates))
	active := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if active[c.ID] {
			continue
		}
		active[c.ID] = true
		roster = append(roster, c)
	}

	result := Result{
		TotalBallots: len(ballots),
		Weighted:     opts.Weighted,
	}

	live := make([]*liveBallot, len(ballots))
	for i, b := range ballots {
		w := 1.0
		if opts.Weighted && b.AutonomyScore > 0 {
			w = b.AutonomyScore
		}
		result.TotalWeight += w

		lb := &liveBallot{
			choices: []string{b.FirstChoice, b.SecondChoice, b.ThirdChoice},
			pos:     -1,
			weight:  w,
		}
		lb.advance(active)
		live[i] = lb
	}

	activeCount := len(roster)
	for activeCount > 1 {
		round := countRound(len(result.Rounds)+1, roster, active, live)

		leader := round.Results[0]
		if leader.Weight*2 > round.TotalWeight {
			result.Rounds = append(result.Rounds, round)
			result.Winner = &Winner{
				CandidateID:   leader.CandidateID,
				CandidateName: leader.CandidateName,
				Weight:        leader.Weight,
				Percentage:    leader.Percentage,
			}
			return result, nil
		}

		loser := round.Results[len(round.Results)-1].CandidateID
		round.Eliminated = loser
		result.Rounds = append(result.Rounds, round)
		result.eliminated = append(result.eliminated, loser)

		active[loser] = false
		activeCount--
		for _, lb := range live {
			if !lb.exhausted && lb.current() == loser {
				lb.advance(active)
			}
		}
	}

	// sole survivor
	for _, c := range roster {
		if !active[c.ID] {
			continue
		}
		var w float64
		for _, lb := range live {
			if !lb.exhausted && lb.current() == c.ID {
				w += lb.weight
			}
		}
		result.Winner = &Winner{
			CandidateID:   c.ID,
			CandidateName: c.Name,
			Weight:        w,
			Percentage:    100,
			ByDefault:     true,
		}
	}

	return result, nil
}

func countRound(number int, roster []Candidate, active map[string]bool, live []*liveBallot) Round {
	weights := make(map[string]float64, len(roster))
	round := Round{Number: number}

	for _, lb := range live {
		if lb.exhausted {
			round.Exhausted++
			continue
		}
		round.ActiveBallots++
		weights[lb.current()] += lb.weight
		round.TotalWeight += lb.weight
	}

	for _, c := range roster {
		if !active[c.ID] {
			continue
		}
		round.Results = append(round.Results, Standing{
			CandidateID:   c.ID,
			CandidateName: c.Name,
			Weight:        weights[c.ID],
			Percentage:    percentage(weights[c.ID], round.TotalWeight),
		})
	}

	// Stable: equal weights keep roster order, so the latest-declared of the
	// tied-lowest candidates ends up last and is eliminated.
	sort.SliceStable(round.Results, func(i, j int) bool {
		return round.Results[i].Weight > round.Results[j].Weight
	})

	return round
}

func percentage(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(part/total*10000) / 100
}
