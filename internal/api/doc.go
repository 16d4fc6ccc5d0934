// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package api is the read-only HTTP surface of Streamwatch.

Endpoints:

	GET /health                  process health (200 healthy, 503 degraded)
	GET /metrics                 Prometheus exposition (self-metrics and PrometheusSink gauges)
	GET /api/v1/status           last tick statistics of every polling loop
	GET /api/v1/categories       game id to category name memo of the stream loop
	GET /api/v1/archive/summary  per class row counts of the DuckDB archive

/api/v1 is rate limited per client IP with go-chi/httprate. Every JSON body
uses the models.APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
*/
package api
