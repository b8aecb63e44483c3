// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package websocket streams analysis state for one journal entry to a browser.

Each connection to /ws/journal/{id}/analysis owns exactly one analysis.View,
bound to the caller's session cookie so the backend sees the original
session. Closing the connection closes the view, which stops its poll
session and discards any fetch still in flight.

Key Components:

  - Hub: tracks live clients and closes them all on shutdown
  - Client: one connection with a read pump and a write pump
  - Handler: upgrades the request and wires a View to a Client

Frames:

	server -> client  {"type":"state","data":{"phase":"pending","attempts":2,"max_attempts":15}}
	server -> client  {"type":"error","data":{"code":"RECOMPUTE_FAILED","message":"..."}}
	server -> client  {"type":"pong"}
	client -> server  {"type":"recompute"}
	client -> server  {"type":"ping"}

The first state frame is sent as soon as the connection is up. State frames
follow in the order the view wrote them.

Each client has two goroutines:
  - readPump: reads client frames, answers pings, starts recomputes
  - writePump: writes queued frames and keepalive pings

A client whose send buffer overflows is disconnected rather than skipped,
so no client ever observes a gap in its state sequence.
*/
package websocket
