// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/streamwatch/internal/logging"
)

// apiServiceName is how the supervisor tree names the status API.
const apiServiceName = "status-api"

// defaultDrainTimeout bounds the drain when the configured timeout is unset.
const defaultDrainTimeout = 10 * time.Second

// HTTPServer is satisfied by the *http.Server from api.NewServer.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// APIService serves the status API until the tree stops it, then drains
// in-flight health and archive queries.
type APIService struct {
	server HTTPServer
	drain  time.Duration
}

// NewAPIService wraps server. drain <= 0 means 10s.
func NewAPIService(server HTTPServer, drain time.Duration) *APIService {
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	return &APIService{server: server, drain: drain}
}

// Serve implements suture.Service.
func (s *APIService) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.server.ListenAndServe() }()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", apiServiceName, err)
	case <-ctx.Done():
	}

	// ctx is already done, so the drain gets a deadline of its own.
	drainCtx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()
	if err := s.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain %s: %w", apiServiceName, err)
	}
	<-done
	logging.Info().Dur("drain_timeout", s.drain).Msg("Status API drained")
	return ctx.Err()
}

func (s *APIService) String() string {
	return apiServiceName
}
