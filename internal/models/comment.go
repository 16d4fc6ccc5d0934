// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package models

import "time"

// Commenter is the author of a VOD chat comment.
type Commenter struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// CommentMessage is the body of a chat comment.
type CommentMessage struct {
	Body      string `json:"body"`
	IsAction  bool   `json:"is_action"`
	UserColor string `json:"user_color,omitempty"`
}

// Comment is one replayed chat message of a video (v5 comments API).
type Comment struct {
	ID                   string         `json:"_id"`
	CreatedAt            time.Time      `json:"created_at"`
	ChannelID            string         `json:"channel_id"`
	ContentType          string         `json:"content_type"`
	ContentID            string         `json:"content_id"`
	ContentOffsetSeconds float64        `json:"content_offset_seconds"`
	Commenter            Commenter      `json:"commenter"`
	Source               string         `json:"source"`
	State                string         `json:"state"`
	Message              CommentMessage `json:"message"`
}

// CommentsPage is a response from GET /videos/{id}/comments.
type CommentsPage struct {
	Comments []Comment `json:"comments"`
	Prev     string    `json:"_prev,omitempty"`
	Next     string    `json:"_next,omitempty"`
}
