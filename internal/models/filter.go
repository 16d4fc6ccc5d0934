// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package models

// MaxFilterValues is the Helix limit on every repeated query parameter and
// on the page size.
const MaxFilterValues = 100

// StreamFilter selects streams for GET /streams. A raw filter from
// configuration may carry any number of UserLogins; a planned shard never
// carries more than MaxFilterValues in any list.
//
// JSON names match the FILTERS environment variable format.
type StreamFilter struct {
	After      string   `json:"after,omitempty" koanf:"after"`
	Before     string   `json:"before,omitempty" koanf:"before"`
	First      int      `json:"first,omitempty" koanf:"first" validate:"min=1,max=100"`
	GameIDs    []string `json:"game_ids,omitempty" koanf:"game_ids" validate:"max=100"`
	Languages  []string `json:"languages,omitempty" koanf:"languages" validate:"max=100"`
	UserIDs    []string `json:"user_ids,omitempty" koanf:"user_ids" validate:"max=100"`
	UserLogins []string `json:"user_logins,omitempty" koanf:"user_logins"`
}

// HasSelectors reports whether any list selector is set.
func (f *StreamFilter) HasSelectors() bool {
	return len(f.GameIDs) > 0 || len(f.Languages) > 0 || len(f.UserIDs) > 0 || len(f.UserLogins) > 0
}

// Clone returns a deep copy so shards never share backing arrays.
func (f *StreamFilter) Clone() StreamFilter {
	return StreamFilter{
		After:      f.After,
		Before:     f.Before,
		First:      f.First,
		GameIDs:    cloneStrings(f.GameIDs),
		Languages:  cloneStrings(f.Languages),
		UserIDs:    cloneStrings(f.UserIDs),
		UserLogins: cloneStrings(f.UserLogins),
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
