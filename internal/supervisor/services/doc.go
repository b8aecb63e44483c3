// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package services adapts edge components to suture.Service.

  - HTTPServerService: ListenAndServe with graceful Shutdown on cancel
  - StreamHubService: the analysis stream hub's RunWithContext
  - UptimeService: app_info and app_uptime_seconds gauges

Each wrapper implements fmt.Stringer so supervisor events name it.

	tree.AddSystemService(services.NewUptimeService(version, 0))
	tree.AddStreamService(services.NewStreamHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
*/
package services
