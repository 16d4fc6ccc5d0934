// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package supervisor runs the long-lived Streamwatch services under a suture v4
supervisor tree.

	streamwatch
	├── pollers-layer
	│   ├── PollerService("stream-poller")
	│   └── PollerService("chat-poller")   (chat.enabled)
	└── api-layer
	    └── APIService                     (server.enabled)

Crashed services are restarted with suture's backoff; failures are counted
per layer. Supervisor events are logged through sutureslog on top of the
zerolog slog adapter:

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	tree.AddPollerService(services.NewPollerService("stream-poller", streamPoller))
	tree.AddAPIService(services.NewAPIService(server, cfg.Supervisor.ShutdownTimeout))
	err := tree.Serve(ctx)

The wrappers that adapt components to suture.Service live in the services
subpackage.
*/
package supervisor
