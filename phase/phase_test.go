// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package phase

import (
	"errors"
	"testing"
	"time"
)

func TestShapes(t *testing.T) {
	tests := []struct {
		shape Shape
		want  []string
	}{
		{ShapeSingle, []string{Declaration, Campaign, Sealed, Voting, Tallying, Complete}},
		{ShapeTwoTier, []string{
			Declaration, PrimaryCampaign, PrimarySealed, PrimaryVoting, PrimaryComplete,
			GeneralCampaign, GeneralSealed, GeneralVoting, Tally, Complete,
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			steps, err := Steps(tt.shape)
			if err != nil {
				t.Fatalf("Steps() error = %v", err)
			}
			if len(steps) != len(tt.want) {
				t.Fatalf("len(steps) = %d, want %d", len(steps), len(tt.want))
			}
			for i, s := range steps {
				if s.Name != tt.want[i] {
					t.Errorf("steps[%d] = %s, want %s", i, s.Name, tt.want[i])
				}
			}
		})
	}

	if _, err := Steps("three_tier"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("expected ErrUnknownShape, got %v", err)
	}
}

func TestNewSchedule(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sched, err := NewSchedule(ShapeSingle, start, nil)
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	if sched.First() != Declaration {
		t.Errorf("First() = %s, want %s", sched.First(), Declaration)
	}

	// Windows are contiguous
	for i := 1; i < len(sched.Windows); i++ {
		if !sched.Windows[i].Start.Equal(sched.Windows[i-1].End) {
			t.Errorf("window %s does not start where %s ends", sched.Windows[i].Phase, sched.Windows[i-1].Phase)
		}
	}

	voting, _ := sched.Window(Voting)
	if want := start.Add(19 * day); !voting.Start.Equal(want) {
		t.Errorf("voting starts %v, want %v", voting.Start, want)
	}

	done, _ := sched.Window(Complete)
	if !done.End.IsZero() {
		t.Error("terminal window should have no end")
	}

	// Overrides
	short, err := NewSchedule(ShapeSingle, start, map[string]time.Duration{Declaration: time.Hour})
	if err != nil {
		t.Fatalf("NewSchedule() with override error = %v", err)
	}
	w, _ := short.Window(Campaign)
	if !w.Start.Equal(start.Add(time.Hour)) {
		t.Errorf("campaign starts %v, want %v", w.Start, start.Add(time.Hour))
	}

	if _, err := NewSchedule(ShapeSingle, start, map[string]time.Duration{PrimaryVoting: time.Hour}); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase for foreign phase, got %v", err)
	}
	if _, err := NewSchedule(ShapeSingle, start, map[string]time.Duration{Voting: -time.Hour}); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestTwoTierGateIsInstant(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sched, err := NewSchedule(ShapeTwoTier, start, nil)
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	gate, ok := sched.Window(PrimaryComplete)
	if !ok {
		t.Fatal("missing primary_complete window")
	}
	if !gate.Start.Equal(gate.End) {
		t.Errorf("primary_complete should be zero-length, got %v..%v", gate.Start, gate.End)
	}
	if !sched.Due(PrimaryComplete, gate.End.Add(time.Nanosecond)) {
		t.Error("gate should be due immediately after it opens")
	}
}

func TestNext(t *testing.T) {
	sched, _ := NewSchedule(ShapeSingle, time.Now(), nil)

	next, err := sched.Next(Sealed)
	if err != nil || next != Voting {
		t.Errorf("Next(sealed) = %s, %v; want voting", next, err)
	}

	if _, err := sched.Next(Complete); !errors.Is(err, ErrTerminal) {
		t.Errorf("Next(complete) error = %v, want ErrTerminal", err)
	}
	if _, err := sched.Next(PrimaryVoting); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("Next(primary_voting) error = %v, want ErrUnknownPhase", err)
	}
}

func TestDue(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sched, _ := NewSchedule(ShapeSingle, start, nil)
	end := start.Add(10 * day)

	if sched.Due(Declaration, end) {
		t.Error("phase should not be due exactly at its end")
	}
	if !sched.Due(Declaration, end.Add(time.Second)) {
		t.Error("phase should be due after its end")
	}
	if sched.Due(Complete, end.Add(1000*day)) {
		t.Error("terminal phase is never due")
	}
}

func TestLegality(t *testing.T) {
	tests := []struct {
		phase   string
		declare bool
		endorse bool
		commit  bool
		reveal  bool
	}{
		{Declaration, true, true, false, false},
		{Campaign, false, true, false, false},
		{Sealed, false, false, true, false},
		{Voting, false, false, true, true},
		{Tallying, false, false, false, true},
		{Complete, false, false, false, false},
		{PrimaryCampaign, false, true, false, false},
		{PrimarySealed, false, false, true, false},
		{PrimaryVoting, false, false, true, true},
		{PrimaryComplete, false, false, false, false},
		{GeneralCampaign, false, false, false, false},
		{GeneralSealed, false, false, true, false},
		{GeneralVoting, false, false, true, true},
		{Tally, false, false, false, true},
		{"bogus", false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			if got := CanDeclare(tt.phase); got != tt.declare {
				t.Errorf("CanDeclare = %v, want %v", got, tt.declare)
			}
			if got := CanEndorse(tt.phase); got != tt.endorse {
				t.Errorf("CanEndorse = %v, want %v", got, tt.endorse)
			}
			if got := CanCommit(tt.phase); got != tt.commit {
				t.Errorf("CanCommit = %v, want %v", got, tt.commit)
			}
			if got := CanReveal(tt.phase); got != tt.reveal {
				t.Errorf("CanReveal = %v, want %v", got, tt.reveal)
			}
		})
	}
}

func TestVotingAlwaysFollowsSealed(t *testing.T) {
	for _, shape := range []Shape{ShapeSingle, ShapeTwoTier} {
		sched, _ := NewSchedule(shape, time.Now(), nil)
		for _, w := range sched.Windows {
			if KindOf(w.Phase) == KindVoting && !sched.Follows(w.Phase, KindSealed) {
				t.Errorf("%s: %s does not follow a sealed phase", shape, w.Phase)
			}
		}
	}
}

func TestStages(t *testing.T) {
	if StageOf(Voting) != StageNone {
		t.Error("single-tier voting should have no stage")
	}
	if StageOf(PrimarySealed) != StagePrimary {
		t.Error("primary_sealed should be primary stage")
	}
	if StageOf(Tally) != StageGeneral {
		t.Error("tally should be general stage")
	}
	if !IsTerminal(Complete) || IsTerminal(Tally) {
		t.Error("only complete is terminal")
	}
}
