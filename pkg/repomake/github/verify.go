// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"errors"
)

// Verify reports the login owning token. Any failure, including a revoked
// token, yields ok == false; the reason is only logged.
func (c *Client) Verify(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	client, err := c.forToken(ctx, token)
	if err != nil {
		c.log.Debugw("Token verification failed", "error", err)
		return "", false
	}
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		var httpErr *HTTPError
		if err = asHTTPError(err); errors.As(err, &httpErr) {
			c.log.Debugw("Token rejected by GitHub", "status", httpErr.StatusCode, "message", httpErr.Message)
		} else {
			c.log.Debugw("Token verification failed", "error", err)
		}
		return "", false
	}
	login := user.GetLogin()
	if login == "" {
		c.log.Debug("GitHub returned no login for token")
		return "", false
	}
	return login, true
}
