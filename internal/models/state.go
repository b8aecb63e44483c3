// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package models

import "fmt"

// Phase names the active variant of a State.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhasePending     Phase = "pending"
	PhaseReady       Phase = "ready"
	PhaseRecomputing Phase = "recomputing"
	PhaseFailed      Phase = "failed"
)

// ReasonExhausted is the failure reason when polling runs out of attempts.
const ReasonExhausted = "exhausted"

// State is the analysis state of one entry as seen by a viewer.
type State struct {
	Phase Phase `json:"phase"`

	// Pending
	Attempts    int `json:"attempts,omitempty"`
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Ready, and Recomputing when a previous artifact is still shown.
	Artifact *Artifact `json:"artifact,omitempty"`

	// Failed
	Reason string `json:"reason,omitempty"`
}

// IdleState returns the initial state.
func IdleState() State { return State{Phase: PhaseIdle} }

// FetchingState returns the state while the first fetch is in flight.
func FetchingState() State { return State{Phase: PhaseFetching} }

// PendingState returns a polling state with attempts of max used.
func PendingState(attempts, max int) State {
	return State{Phase: PhasePending, Attempts: attempts, MaxAttempts: max}
}

// ReadyState returns the state holding a delivered artifact.
func ReadyState(a *Artifact) State { return State{Phase: PhaseReady, Artifact: a} }

// RecomputingState returns the state while a recompute is in flight.
// previous may be nil.
func RecomputingState(previous *Artifact) State {
	return State{Phase: PhaseRecomputing, Artifact: previous}
}

// FailedState returns a terminal failure with the given reason.
func FailedState(reason string) State { return State{Phase: PhaseFailed, Reason: reason} }

// IsTerminal reports whether no further polling happens from this state.
func (s State) IsTerminal() bool {
	return s.Phase == PhaseReady || s.Phase == PhaseFailed
}

// RemainingAttempts returns how many polling attempts a pending state has left.
func (s State) RemainingAttempts() int {
	if s.Phase != PhasePending || s.MaxAttempts <= s.Attempts {
		return 0
	}
	return s.MaxAttempts - s.Attempts
}

func (s State) String() string {
	switch s.Phase {
	case PhasePending:
		return fmt.Sprintf("pending(%d/%d)", s.Attempts, s.MaxAttempts)
	case PhaseFailed:
		return fmt.Sprintf("failed(%s)", s.Reason)
	case "":
		return string(PhaseIdle)
	default:
		return string(s.Phase)
	}
}
