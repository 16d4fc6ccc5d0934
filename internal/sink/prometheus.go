// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/streamwatch/internal/models"
)

// PrometheusName is the sink name used in logs and metrics.
const PrometheusName = "prometheus"

// ErrUnknownSchema is wrapped when a datapoint's labels match neither the
// stream nor the chat schema.
var ErrUnknownSchema = errors.New("unsupported label schema")

var chatLabelKeys = []string{models.LabelEventName, models.LabelVideoID, models.LabelChannelID}

type series struct {
	vec    *prometheus.GaugeVec
	values []string
	seen   time.Time
}

// PrometheusSink mirrors the latest value of every series into gauges so
// the audience can be scraped from /metrics next to the self-metrics.
//
// Streams that go offline stop being reported by Twitch; their series are
// deleted once they have not been updated for staleAfter.
type PrometheusSink struct {
	viewers    *prometheus.GaugeVec
	chat       *prometheus.GaugeVec
	staleAfter time.Duration
	now        func() time.Time

	mu     sync.Mutex
	series map[string]*series
}

// NewPrometheusSink registers the gauges on reg. A staleAfter of zero
// keeps every series forever.
func NewPrometheusSink(reg prometheus.Registerer, staleAfter time.Duration) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		viewers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamwatch_stream_viewers",
				Help: "Latest viewer count per live stream",
			},
			models.StreamLabelKeys,
		),
		chat: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamwatch_chat_value",
				Help: "Latest chat statistic per video",
			},
			append([]string{"class"}, chatLabelKeys...),
		),
		staleAfter: staleAfter,
		now:        time.Now,
		series:     make(map[string]*series),
	}
}

// Name implements Sink.
func (s *PrometheusSink) Name() string { return PrometheusName }

// Submit implements Sink. Datapoints with an unknown label schema are
// counted as lost; the rest of the batch is still applied.
func (s *PrometheusSink) Submit(_ context.Context, batch []models.Datapoint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	accepted := 0
	for i := range batch {
		dp := &batch[i]
		vec, values, ok := s.route(dp)
		if !ok {
			continue
		}
		vec.WithLabelValues(values...).Set(float64(dp.Value))

		key := strings.Join(values, "\x00")
		if vec == s.chat {
			key = "chat\x00" + key
		}
		s.series[key] = &series{vec: vec, values: values, seen: now}
		accepted++
	}
	s.pruneLocked(now)

	if lost := len(batch) - accepted; lost > 0 {
		return accepted, &Error{Sink: PrometheusName, Lost: lost, Err: ErrUnknownSchema}
	}
	return accepted, nil
}

// Len returns the number of live series.
func (s *PrometheusSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.series)
}

func (s *PrometheusSink) route(dp *models.Datapoint) (*prometheus.GaugeVec, []string, bool) {
	keys := dp.LabelKeys()
	switch {
	case slices.Equal(keys, models.StreamLabelKeys):
		return s.viewers, labelValues(dp), true
	case slices.Equal(keys, chatLabelKeys):
		return s.chat, append([]string{dp.Class}, labelValues(dp)...), true
	default:
		return nil, nil, false
	}
}

func (s *PrometheusSink) pruneLocked(now time.Time) {
	if s.staleAfter <= 0 {
		return
	}
	for key, ser := range s.series {
		if now.Sub(ser.seen) > s.staleAfter {
			ser.vec.DeleteLabelValues(ser.values...)
			delete(s.series, key)
		}
	}
}

func labelValues(dp *models.Datapoint) []string {
	values := make([]string, len(dp.Labels))
	for i, l := range dp.Labels {
		values[i] = l.Value
	}
	return values
}
