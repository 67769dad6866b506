// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package phase

import (
	"fmt"
	"time"
)

// Window is the time span assigned to one phase. The terminal phase has a
// zero End.
type Window struct {
	Phase string    `json:"phase"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Schedule is an election's ordered list of phase windows.
type Schedule struct {
	Shape   Shape    `json:"shape"`
	Windows []Window `json:"windows"`
}

// NewSchedule lays out back-to-back windows starting at start. Durations
// overrides the default length of individual phases by name.
func NewSchedule(shape Shape, start time.Time, durations map[string]time.Duration) (Schedule, error) {
	steps, err := Steps(shape)
	if err != nil {
		return Schedule{}, err
	}

	for name := range durations {
		if _, ok := indexOf(steps, name); !ok {
			return Schedule{}, fmt.Errorf("%w: %q not in %s shape", ErrUnknownPhase, name, shape)
		}
	}

	sched := Schedule{Shape: shape, Windows: make([]Window, 0, len(steps))}
	cursor := start.UTC()
	for _, s := range steps {
		if s.Kind == KindComplete {
			sched.Windows = append(sched.Windows, Window{Phase: s.Name, Start: cursor})
			break
		}
		d := s.Duration
		if override, ok := durations[s.Name]; ok {
			if override < 0 {
				return Schedule{}, fmt.Errorf("negative duration for %s", s.Name)
			}
			d = override
		}
		sched.Windows = append(sched.Windows, Window{Phase: s.Name, Start: cursor, End: cursor.Add(d)})
		cursor = cursor.Add(d)
	}

	return sched, nil
}

func indexOf(steps []Step, name string) (int, bool) {
	for i, s := range steps {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// First returns the initial phase.
func (s Schedule) First() string {
	if len(s.Windows) == 0 {
		return ""
	}
	return s.Windows[0].Phase
}

// Window returns the window for a phase.
func (s Schedule) Window(name string) (Window, bool) {
	for _, w := range s.Windows {
		if w.Phase == name {
			return w, true
		}
	}
	return Window{}, false
}

// Next returns the phase that follows current.
func (s Schedule) Next(current string) (string, error) {
	for i, w := range s.Windows {
		if w.Phase != current {
			continue
		}
		if i == len(s.Windows)-1 {
			return "", fmt.Errorf("%w: %s", ErrTerminal, current)
		}
		return s.Windows[i+1].Phase, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, current)
}

// Due reports whether now is past the end of the current phase's window.
func (s Schedule) Due(current string, now time.Time) bool {
	w, ok := s.Window(current)
	if !ok || w.End.IsZero() {
		return false
	}
	return now.After(w.End)
}

// Follows reports whether the phase before name in this schedule has kind k.
func (s Schedule) Follows(name string, k Kind) bool {
	for i, w := range s.Windows {
		if w.Phase == name {
			return i > 0 && KindOf(s.Windows[i-1].Phase) == k
		}
	}
	return false
}
