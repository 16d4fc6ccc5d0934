// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package models

import (
	"time"
)

// APIResponse wraps every HTTP API payload.
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-01-02T20:15:00Z"}
//	}
//
// Status is "success" or "error"; Error is set only for errors.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the error body, with a machine readable code such as
// "ARCHIVE_DISABLED".
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status          string            `json:"status"` // healthy or degraded
	Version         string            `json:"version"`
	Uptime          float64           `json:"uptime_seconds"`
	EventName       string            `json:"event_name"`
	Sinks           []string          `json:"sinks"`
	ArchiveEnabled  bool              `json:"archive_enabled"`
	ArchiveHealthy  bool              `json:"archive_healthy,omitempty"`
	TwitchBreakers  map[string]string `json:"twitch_breakers,omitempty"` // breaker name -> state
	LoopsRunning    map[string]bool   `json:"loops_running"`
	LastStreamsTick *time.Time        `json:"last_streams_tick,omitempty"`
}
