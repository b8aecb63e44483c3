// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package models

import (
	"time"

	"github.com/lebensschule/journal-edge/internal/validation"
)

// Analysis status values reported when an entry is created.
const (
	AnalysisStatusPending = "pending"
	AnalysisStatusReady   = "ready"
	AnalysisStatusFailed  = "failed"
)

// JournalEntry is a stored journal entry.
type JournalEntry struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	MoodScore   int       `json:"mood_score"`
	EnergyScore int       `json:"energy_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateEntryRequest is the body of POST /journal.
type CreateEntryRequest struct {
	Text        string `json:"text" validate:"required,notblank,max=20000"`
	MoodScore   int    `json:"mood_score" validate:"required,min=1,max=10"`
	EnergyScore int    `json:"energy_score" validate:"required,min=1,max=10"`
}

// Validate checks the request before it is sent upstream.
func (r *CreateEntryRequest) Validate() error {
	if verr := validation.ValidateStruct(r); verr != nil {
		return verr
	}
	return nil
}

// CreateEntryResult is the backend's response to a created entry.
type CreateEntryResult struct {
	Entry          JournalEntry `json:"entry"`
	AnalysisStatus string       `json:"analysis_status"`
}
