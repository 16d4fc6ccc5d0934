// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/models"
)

// Warp10Name is the sink name used in logs and metrics.
const Warp10Name = "warp10"

const (
	warp10UpdatePath    = "/api/v0/update"
	warp10TokenHeader   = "X-Warp10-Token"
	warp10MaxErrorBytes = 64 * 1024
)

// Warp10Sink writes datapoints to a Warp 10 instance using the GTS input
// format. A batch is a single request: Warp 10 either ingests the whole
// body or rejects it.
type Warp10Sink struct {
	url    string
	token  string
	client *http.Client
}

// NewWarp10Sink builds a sink for the instance at cfg.URL.
func NewWarp10Sink(cfg *config.Warp10Config) *Warp10Sink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Warp10Sink{
		url:    strings.TrimRight(cfg.URL, "/") + warp10UpdatePath,
		token:  cfg.WriteToken,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Sink.
func (s *Warp10Sink) Name() string { return Warp10Name }

// Submit implements Sink.
func (s *Warp10Sink) Submit(ctx context.Context, batch []models.Datapoint) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	body := EncodeGTS(batch)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, s.fail(len(batch), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set(warp10TokenHeader, s.token)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, s.fail(len(batch), fmt.Errorf("post update: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, warp10MaxErrorBytes))
		return 0, s.fail(len(batch), fmt.Errorf("update returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return len(batch), nil
}

func (s *Warp10Sink) fail(lost int, err error) error {
	return &Error{Sink: Warp10Name, Lost: lost, Err: err}
}

// EncodeGTS renders a batch in the Warp 10 GTS input format, one line per
// datapoint:
//
//	1700000000000000// stream.viewers{event_name=zevent,user_name=alice} 1234
//
// Timestamps are microseconds since the epoch. The location and elevation
// fields are left empty.
func EncodeGTS(batch []models.Datapoint) []byte {
	var buf bytes.Buffer
	for i := range batch {
		writeGTSLine(&buf, &batch[i])
	}
	return buf.Bytes()
}

func writeGTSLine(buf *bytes.Buffer, dp *models.Datapoint) {
	buf.WriteString(strconv.FormatInt(dp.Timestamp.UnixMicro(), 10))
	buf.WriteString("// ")
	buf.WriteString(encodeGTSName(dp.Class))
	buf.WriteByte('{')
	for i, l := range dp.Labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(encodeGTSName(l.Key))
		buf.WriteByte('=')
		buf.WriteString(encodeGTSName(l.Value))
	}
	buf.WriteString("} ")
	buf.WriteString(strconv.FormatInt(dp.Value, 10))
	buf.WriteByte('\n')
}

// encodeGTSName percent-encodes every byte outside the unreserved set
// (A-Z a-z 0-9 - . _ ~), which covers the separators of the line format
// as well as spaces and multi-byte UTF-8 sequences.
func encodeGTSName(s string) string {
	needs := false
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			needs = true
			break
		}
	}
	if !needs {
		return s
	}

	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
