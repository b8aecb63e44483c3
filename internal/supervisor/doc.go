// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package supervisor runs the edge's long-lived services under suture v4.

	journal-edge
	├── system-layer
	│   └── uptime
	├── stream-layer
	│   └── stream-hub
	└── api-layer
	    └── http-server

Failed services are restarted with suture's backoff; failures in one layer
do not restart the others. Supervisor events are logged through sutureslog
into the zerolog pipeline (see logging.NewSlogLogger).

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStreamService(services.NewStreamHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := tree.Serve(ctx)
*/
package supervisor
