// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package phase describes election phase shapes and which operations each
// phase permits.
package phase

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownShape = errors.New("unknown election shape")
	ErrUnknownPhase = errors.New("unknown phase")
	ErrTerminal     = errors.New("phase is terminal")
)

// Shape selects the ordered phase list an election runs through.
type Shape string

const (
	ShapeSingle  Shape = "single"
	ShapeTwoTier Shape = "two_tier"
)

// Kind classifies a phase for legality checks.
type Kind string

const (
	KindDeclaration Kind = "declaration"
	KindCampaign    Kind = "campaign"
	KindSealed      Kind = "sealed"
	KindVoting      Kind = "voting"
	KindGate        Kind = "gate"
	KindTally       Kind = "tally"
	KindComplete    Kind = "complete"
)

// Stage identifies which voting cycle a phase belongs to. Single-tier
// elections use StageNone throughout.
type Stage string

const (
	StageNone    Stage = ""
	StagePrimary Stage = "primary"
	StageGeneral Stage = "general"
)

// Phase names
const (
	Declaration     = "declaration"
	Campaign        = "campaign"
	Sealed          = "sealed"
	Voting          = "voting"
	Tallying        = "tallying"
	Complete        = "complete"
	PrimaryCampaign = "primary_campaign"
	PrimarySealed   = "primary_sealed"
	PrimaryVoting   = "primary_voting"
	PrimaryComplete = "primary_complete"
	GeneralCampaign = "general_campaign"
	GeneralSealed   = "general_sealed"
	GeneralVoting   = "general_voting"
	Tally           = "tally"
)

// Step is one entry of a shape's phase list.
type Step struct {
	Name     string
	Kind     Kind
	Stage    Stage
	Duration time.Duration
}

const day = 24 * time.Hour

var shapes = map[Shape][]Step{
	ShapeSingle: {
		{Declaration, KindDeclaration, StageNone, 10 * day},
		{Campaign, KindCampaign, StageNone, 7 * day},
		{Sealed, KindSealed, StageNone, 2 * day},
		{Voting, KindVoting, StageNone, 1 * day},
		{Tallying, KindTally, StageNone, 2 * day},
		{Complete, KindComplete, StageNone, 0},
	},
	ShapeTwoTier: {
		{Declaration, KindDeclaration, StageNone, 10 * day},
		{PrimaryCampaign, KindCampaign, StagePrimary, 7 * day},
		{PrimarySealed, KindSealed, StagePrimary, 2 * day},
		{PrimaryVoting, KindVoting, StagePrimary, 1 * day},
		{PrimaryComplete, KindGate, StagePrimary, 0},
		{GeneralCampaign, KindCampaign, StageGeneral, 10 * day},
		{GeneralSealed, KindSealed, StageGeneral, 2 * day},
		{GeneralVoting, KindVoting, StageGeneral, 1 * day},
		{Tally, KindTally, StageGeneral, 2 * day},
		{Complete, KindComplete, StageNone, 0},
	},
}

// Steps returns a copy of the phase list for a shape.
func Steps(shape Shape) ([]Step, error) {
	steps, ok := shapes[shape]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return out, nil
}

// Lookup finds a phase by name across all shapes. Phase names are unique
// per (kind, stage) so the answer does not depend on the shape.
func Lookup(name string) (Step, bool) {
	for _, steps := range shapes {
		for _, s := range steps {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Step{}, false
}

// KindOf returns the kind of a named phase, or "" if unknown.
func KindOf(name string) Kind {
	s, _ := Lookup(name)
	return s.Kind
}

// StageOf returns the voting cycle of a named phase.
func StageOf(name string) Stage {
	s, _ := Lookup(name)
	return s.Stage
}

// IsTerminal reports whether no transition leaves the phase.
func IsTerminal(name string) bool {
	return KindOf(name) == KindComplete
}

// CanDeclare reports whether candidacy declarations are accepted.
func CanDeclare(name string) bool {
	return KindOf(name) == KindDeclaration
}

// CanEndorse reports whether endorsements are accepted. The general
// stage of a two-tier election reuses the primary roster and takes none.
func CanEndorse(name string) bool {
	k := KindOf(name)
	return (k == KindDeclaration || k == KindCampaign) && StageOf(name) != StageGeneral
}

// CanCommit reports whether nonces may be issued and commitments accepted.
// Every voting phase directly follows a sealed phase in both shapes, so late
// commits during voting are accepted uniformly.
func CanCommit(name string) bool {
	k := KindOf(name)
	return k == KindSealed || k == KindVoting
}

// CanReveal reports whether reveals are accepted.
func CanReveal(name string) bool {
	k := KindOf(name)
	return k == KindVoting || k == KindTally
}
