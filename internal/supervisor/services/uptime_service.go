// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package services

import (
	"context"
	"runtime"
	"time"

	"github.com/lebensschule/journal-edge/internal/metrics"
)

// UptimeService publishes app_info once and refreshes app_uptime_seconds
// on every tick.
type UptimeService struct {
	version  string
	interval time.Duration
	started  time.Time
}

// NewUptimeService creates the service. A non-positive interval means 15s.
func NewUptimeService(version string, interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &UptimeService{version: version, interval: interval, started: time.Now()}
}

// Serve implements suture.Service.
func (u *UptimeService) Serve(ctx context.Context) error {
	metrics.AppInfo.WithLabelValues(u.version, runtime.Version()).Set(1)
	u.publish()

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			u.publish()
		}
	}
}

func (u *UptimeService) publish() {
	metrics.AppUptime.Set(time.Since(u.started).Seconds())
}

// String names the service in supervisor events.
func (u *UptimeService) String() string {
	return "uptime"
}
