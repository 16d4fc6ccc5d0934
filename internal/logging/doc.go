// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

// Package logging provides the zerolog-based structured logging used across
// Streamwatch.
//
// All packages log through the package-level helpers, which wrap a single
// global zerolog.Logger configured once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("event_name", name).Msg("Stream poller started")
//
// # Correlation IDs
//
// Every poller tick runs under a context carrying a short correlation ID.
// Use Ctx to pick it up:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Debug().Int("page", n).Msg("Page fetched")
//
// # Adapters
//
// Two third-party libraries expect their own logger interfaces:
//   - SlogHandler feeds the suture supervisor event hook (sutureslog).
//   - WatermillAdapter feeds the watermill NATS publisher.
//
// Both write through zerolog so output format and level stay uniform.
package logging
