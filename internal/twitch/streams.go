// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package twitch

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tomtom215/streamwatch/internal/models"
)

// GetStreams fetches one page of live streams matching filter.
// List selectors are sent as repeated query parameters.
func (c *Client) GetStreams(ctx context.Context, filter models.StreamFilter) (*models.StreamsPage, error) {
	var page models.StreamsPage
	if err := c.getJSON(ctx, c.helixURL+"/streams?"+streamsQuery(filter).Encode(), "streams", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func streamsQuery(f models.StreamFilter) url.Values {
	q := url.Values{}
	if f.After != "" {
		q.Set("after", f.After)
	}
	if f.Before != "" {
		q.Set("before", f.Before)
	}
	if f.First > 0 {
		q.Set("first", strconv.Itoa(f.First))
	}
	for _, id := range f.GameIDs {
		q.Add("game_id", id)
	}
	for _, lang := range f.Languages {
		q.Add("language", lang)
	}
	for _, id := range f.UserIDs {
		q.Add("user_id", id)
	}
	for _, login := range f.UserLogins {
		q.Add("user_login", login)
	}
	return q
}
