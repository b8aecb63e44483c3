// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package services

import "context"

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// StreamHubService runs the analysis stream hub under suture. On
// cancellation the hub closes every open stream before returning.
type StreamHubService struct {
	hub  ContextHub
	name string
}

// NewStreamHubService wraps hub.
func NewStreamHubService(hub ContextHub) *StreamHubService {
	return &StreamHubService{hub: hub, name: "stream-hub"}
}

// Serve implements suture.Service.
func (s *StreamHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String names the service in supervisor events.
func (s *StreamHubService) String() string {
	return s.name
}
