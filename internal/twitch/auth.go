// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/streamwatch/internal/logging"
)

type credentials struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Authorize obtains an app access token with the client-credentials grant.
// The token is kept for the lifetime of the client; there is no refresh.
// Every failure wraps ErrAuth.
func (c *Client) Authorize(ctx context.Context) error {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("grant_type", "client_credentials")

	resp, err := c.doRequestWithRateLimit(ctx, http.MethodPost, c.authURL+"?"+params.Encode(), "oauth2/token")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", ErrAuth, resp.StatusCode, readBodyForError(resp.Body))
	}

	var creds credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if creds.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrAuth)
	}

	c.mu.Lock()
	c.token = creds.AccessToken
	c.mu.Unlock()

	logging.Info().
		Str("client_id", c.clientID).
		Str("token", logging.MaskSecret(creds.AccessToken)).
		Int64("expires_in", creds.ExpiresIn).
		Msg("Twitch authorization succeeded")
	return nil
}
