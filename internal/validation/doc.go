// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide. Field names in errors
// are reported by their JSON names so they line up with what the backend and
// browser see on the wire.
//
// # Custom Tags
//
//   - notblank: string must contain at least one non-whitespace character
//   - pillar: string must name one of the five pillars (geist, herz, seele,
//     koerper, aura); used with map key validation
//
// # Usage
//
//	type CreateEntryRequest struct {
//	    Text      string `json:"text" validate:"required,notblank,max=20000"`
//	    MoodScore int    `json:"mood_score" validate:"required,min=1,max=10"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    resp.Error(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
//
// Artifacts decoded from the backend are validated the same way before the
// analysis coordinator accepts them, so a malformed payload is treated like
// any other failed fetch instead of reaching a subscriber.
package validation
