// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package models

import (
	"github.com/lebensschule/journal-edge/internal/validation"
)

// Emotion is one detected emotion with its intensity in [0,1].
type Emotion struct {
	Name      string  `json:"name" validate:"required,min=1,max=40"`
	Intensity float64 `json:"intensity" validate:"min=0,max=1"`
}

// Recommendations holds up to three daily and three weekly suggestions.
type Recommendations struct {
	Daily  []string `json:"daily" validate:"max=3"`
	Weekly []string `json:"weekly" validate:"max=3"`
}

// Signals are the textual cues the analysis was derived from.
type Signals struct {
	Keywords []string `json:"keywords"`
	Phrases  []string `json:"phrases"`
	Triggers []string `json:"triggers"`
}

// RiskFlags marks content that needs human attention.
type RiskFlags struct {
	SelfHarm bool `json:"self_harm"`
	Crisis   bool `json:"crisis"`
	Medical  bool `json:"medical"`
	Violence bool `json:"violence"`
}

// Any reports whether at least one flag is raised.
func (f RiskFlags) Any() bool {
	return f.SelfHarm || f.Crisis || f.Medical || f.Violence
}

// Artifact is the computed analysis of a single journal entry.
type Artifact struct {
	ID               string             `json:"id" validate:"required"`
	EntryID          string             `json:"entry_id" validate:"required"`
	UserID           string             `json:"user_id,omitempty"`
	Language         string             `json:"language" validate:"omitempty,oneof=de en"`
	Emotions         []Emotion          `json:"emotions" validate:"dive"`
	Themes           []string           `json:"themes" validate:"max=6"`
	PillarWeights    map[string]float64 `json:"pillar_weights,omitempty" validate:"omitempty,dive,keys,pillar,endkeys,min=0,max=1"`
	PillarScores     map[string]float64 `json:"pillar_scores" validate:"omitempty,dive,keys,pillar,endkeys,min=1,max=10"`
	Reflection       string             `json:"reflection" validate:"max=1200"`
	Recommendations  Recommendations    `json:"recommendations"`
	Signals          Signals            `json:"signals"`
	RationaleSummary string             `json:"rationale_summary" validate:"max=500"`
	RiskFlags        RiskFlags          `json:"risk_flags"`
}

// Validate checks the artifact against the backend's documented bounds.
func (a *Artifact) Validate() error {
	if verr := validation.ValidateStruct(a); verr != nil {
		return verr
	}
	return nil
}
