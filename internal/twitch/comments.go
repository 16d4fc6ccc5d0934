// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package twitch

import (
	"context"
	"net/url"

	"github.com/tomtom215/streamwatch/internal/models"
)

// GetComments fetches one page of replayed chat for a video. An empty
// cursor starts from the beginning of the video.
func (c *Client) GetComments(ctx context.Context, videoID, cursor string) (*models.CommentsPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	} else {
		q.Set("content_offset_seconds", "0")
	}

	reqURL := c.v5URL + "/videos/" + url.PathEscape(videoID) + "/comments?" + q.Encode()

	var page models.CommentsPage
	if err := c.getJSON(ctx, reqURL, "comments", &page); err != nil {
		return nil, err
	}
	return &page, nil
}
