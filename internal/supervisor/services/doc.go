// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

// Package services adapts Streamwatch components to suture.Service.
//
//   - PollerService: Start/Stop polling loops
//   - APIService: the status API server, drained on stop
//
// Every wrapper implements fmt.Stringer so suture can name it in logs.
package services
