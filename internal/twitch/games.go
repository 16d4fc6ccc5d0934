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

// GetGames looks up categories by id. Unknown ids are absent from the
// result; that is not an error.
func (c *Client) GetGames(ctx context.Context, ids []string) (*models.GamesPage, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("id", id)
	}

	var page models.GamesPage
	if err := c.getJSON(ctx, c.helixURL+"/games?"+q.Encode(), "games", &page); err != nil {
		return nil, err
	}
	return &page, nil
}
