// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

// DefaultTopN is the number of primary candidates that advance when an
// election does not configure one.
const DefaultTopN = 5

// Placement is a candidate's final primary standing.
type Placement struct {
	Rank          int     `json:"rank"`
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	Weight        float64 `json:"weight"`
	Percentage    float64 `json:"percentage"`
	Advanced      bool    `json:"advanced"`
}

// PrimaryResult is the primary variant of Result: a full standing with the
// top N marked as advancing.
type PrimaryResult struct {
	Result
	TopN      int         `json:"top_n"`
	Standings []Placement `json:"standings"`
}

// Advancing returns the placements that advance to the general stage.
func (p PrimaryResult) Advancing() []Placement {
	out := []Placement{}
	for _, s := range p.Standings {
		if s.Advanced {
			out = append(out, s)
		}
	}
	return out
}

// TallyPrimary runs an unweighted tally and ranks every candidate: the final
// round's order first, then eliminated candidates from last eliminated to
// first. Each candidate's weight is taken from the last round it appeared in.
func TallyPrimary(ballots []Ballot, candidates []Candidate, topN int) (PrimaryResult, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	res, err := Tally(ballots, candidates, Options{})
	if err != nil {
		return PrimaryResult{}, err
	}

	pr := PrimaryResult{Result: res, TopN: topN}

	// last seen standing per candidate
	last := make(map[string]Standing)
	for _, r := range res.Rounds {
		for _, s := range r.Results {
			last[s.CandidateID] = s
		}
	}

	var order []Standing
	if n := len(res.Rounds); n > 0 {
		final := res.Rounds[n-1]
		for _, s := range final.Results {
			if s.CandidateID != final.Eliminated {
				order = append(order, s)
			}
		}
		if final.Eliminated != "" {
			// ended by elimination down to a sole survivor
			order = append(order, last[final.Eliminated])
		}
	} else if res.Winner != nil {
		// a single-candidate roster never counts a round
		order = append(order, Standing{
			CandidateID:   res.Winner.CandidateID,
			CandidateName: res.Winner.CandidateName,
			Weight:        res.Winner.Weight,
			Percentage:    res.Winner.Percentage,
		})
	}

	seen := make(map[string]bool, len(order))
	for _, s := range order {
		seen[s.CandidateID] = true
	}
	for i := len(res.eliminated) - 1; i >= 0; i-- {
		id := res.eliminated[i]
		if !seen[id] {
			seen[id] = true
			order = append(order, last[id])
		}
	}

	for i, s := range order {
		pr.Standings = append(pr.Standings, Placement{
			Rank:          i + 1,
			CandidateID:   s.CandidateID,
			CandidateName: s.CandidateName,
			Weight:        s.Weight,
			Percentage:    s.Percentage,
			Advanced:      i < topN,
		})
	}

	return pr, nil
}
