// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package main is the entry point of the Streamwatch poller.

Streamwatch samples the live streams of a Twitch event at a fixed interval
and ships one viewer count datapoint per stream to Warp 10, and optionally
to NATS, a DuckDB archive and a Prometheus gauge. A second optional loop
counts chat messages and commenters of configured videos.

# Process Layout

	streamwatch (suture root)
	├── pollers-layer
	│   ├── streams loop
	│   └── chat loop (chat.enabled)
	└── api-layer
	    └── HTTP server (server.enabled)

Startup order:

 1. Configuration: .env, defaults, YAML file, environment, flags (koanf)
 2. Logging: zerolog, global logger
 3. Twitch: client credentials grant. A rejected grant stops the process.
 4. Shard planning: the filter is split into Helix-sized requests. An
    oversized selector stops the process.
 5. Sinks: every configured output, each behind its delivery policy
 6. Supervisor tree with the loops and the HTTP server

# Usage

	export TWITCH_CLIENT_ID=...
	export TWITCH_CLIENT_SECRET=...
	export WARP10_URL=https://warp10.example.org
	export WARP10_WRITE_TOKEN=...
	export WARP10_PREFIX=twitch
	export EVENT_NAME=zevent
	export FILTERS='{"user_login":["zerator","mistermv"]}'
	./streamwatch --minimum-viewers 50

	./streamwatch --config /etc/streamwatch/config.yaml --interval 30s
	./streamwatch version

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the loops
and drains the HTTP server, then the NATS connection, the embedded NATS
server and the archive are closed in that order.
*/
package main
