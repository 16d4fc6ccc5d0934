// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/models"
)

// NATSName is the sink name used in logs and metrics.
const NATSName = "nats"

// ErrSinkClosed is returned by Submit after Close.
var ErrSinkClosed = errors.New("sink is closed")

// Batch is the JSON payload of one NATS message.
type Batch struct {
	SentAt     time.Time          `json:"sent_at"`
	Datapoints []models.Datapoint `json:"datapoints"`
}

// NATSSink publishes each batch as one message on a core NATS subject.
type NATSSink struct {
	publisher message.Publisher
	subject   string
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewNATSSink connects to cfg.URL. The connection is retried in the
// background, so an unreachable server at startup is not an error; batches
// submitted while disconnected are buffered by the client up to its
// reconnect buffer.
func NewNATSSink(cfg *config.NATSConfig) (*NATSSink, error) {
	logger := logging.NewWatermillAdapter("nats-sink")

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("streamwatch"),
		natsgo.Timeout(connectTimeout),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &NATSSink{
		publisher: pub,
		subject:   cfg.Subject,
		now:       time.Now,
	}, nil
}

// Name implements Sink.
func (s *NATSSink) Name() string { return NATSName }

// Subject returns the subject batches are published on.
func (s *NATSSink) Subject() string { return s.subject }

// Submit implements Sink.
func (s *NATSSink) Submit(ctx context.Context, batch []models.Datapoint) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, &Error{Sink: NATSName, Lost: len(batch), Err: ErrSinkClosed}
	}
	if err := ctx.Err(); err != nil {
		return 0, &Error{Sink: NATSName, Lost: len(batch), Err: err}
	}

	payload, err := json.Marshal(Batch{SentAt: s.now().UTC(), Datapoints: batch})
	if err != nil {
		return 0, &Error{Sink: NATSName, Lost: len(batch), Err: fmt.Errorf("encode batch: %w", err)}
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("content_type", "application/json")
	msg.Metadata.Set("datapoints", strconv.Itoa(len(batch)))
	msg.SetContext(ctx)

	if err := s.publisher.Publish(s.subject, msg); err != nil {
		return 0, &Error{Sink: NATSName, Lost: len(batch), Err: fmt.Errorf("publish to %s: %w", s.subject, err)}
	}
	return len(batch), nil
}

// Close shuts down the publisher. It is safe to call more than once.
func (s *NATSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.publisher.Close()
}
