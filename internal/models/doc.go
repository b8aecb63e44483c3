// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package models defines the data types shared between the journal client, the
analysis coordinator and the websocket surface.

# Artifact

Artifact is the analysis result the backend produces for one journal entry.
Its JSON shape matches the backend's EntryAnalysisOut. The edge treats it as
opaque apart from validating it on receipt.

# State

State is a tagged variant describing where an entry's analysis stands:

	idle         nothing requested yet
	fetching     first fetch in flight
	pending      polling; Attempts of MaxAttempts used
	ready        Artifact is available
	recomputing  synchronous recompute in flight
	failed       terminal failure; Reason explains why

Exactly one phase is active at a time. Constructors build well-formed values;
fields that do not belong to the current phase are left zero.
*/
package models
