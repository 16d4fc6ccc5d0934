// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package models

import "time"

// Label keys of a stream viewers datapoint, in emission order.
const (
	LabelEventName = "event_name"
	LabelStreamID  = "stream_id"
	LabelGameID    = "game_id"
	LabelGameName  = "game_name"
	LabelUserID    = "user_id"
	LabelUserName  = "user_name"

	LabelVideoID   = "video_id"
	LabelChannelID = "channel_id"
)

// StreamLabelKeys is the fixed label schema of a stream viewers datapoint.
var StreamLabelKeys = []string{
	LabelEventName,
	LabelStreamID,
	LabelGameID,
	LabelGameName,
	LabelUserID,
	LabelUserName,
}

// Label is one key/value pair of a datapoint.
type Label struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Datapoint is one labeled observation destined for a metrics sink.
// Labels keep their insertion order.
type Datapoint struct {
	Timestamp time.Time `json:"timestamp"`
	Class     string    `json:"class"`
	Labels    []Label   `json:"labels"`
	Value     int64     `json:"value"`
}

// LabelMap returns the labels keyed by name.
func (d *Datapoint) LabelMap() map[string]string {
	m := make(map[string]string, len(d.Labels))
	for _, l := range d.Labels {
		m[l.Key] = l.Value
	}
	return m
}

// LabelKeys returns the label names in order.
func (d *Datapoint) LabelKeys() []string {
	keys := make([]string, len(d.Labels))
	for i, l := range d.Labels {
		keys[i] = l.Key
	}
	return keys
}
