// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package models

import "time"

// Stream is one live broadcast as returned by Helix GET /streams.
//
// Records arrive sorted by descending ViewerCount within a single query.
// The poller relies on that order for early stop and checks it on every
// page.
type Stream struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	GameID       string    `json:"game_id"`
	GameName     string    `json:"game_name"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	StartedAt    time.Time `json:"started_at"`
	Language     string    `json:"language"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsMature     bool      `json:"is_mature"`
}

// Pagination is the Helix cursor envelope. An empty Cursor means no
// further page is advertised.
type Pagination struct {
	Cursor string `json:"cursor,omitempty"`
}

// StreamsPage is a single response from GET /streams.
type StreamsPage struct {
	Data       []Stream   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Game is a Helix category.
type Game struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
	IGDBID    string `json:"igdb_id,omitempty"`
}

// GamesPage is a response from GET /games. Unknown ids are simply absent
// from Data.
type GamesPage struct {
	Data []Game `json:"data"`
}
