// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package twitch

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the client-credentials grant failed. Fatal at startup.
	ErrAuth = errors.New("twitch: authorization failed")

	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("twitch: transport error")

	// ErrDecode means a response body could not be decoded.
	ErrDecode = errors.New("twitch: malformed response")
)

// StatusError is a non-2xx response. It matches ErrTransport with errors.Is.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("twitch %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrTransport
}
