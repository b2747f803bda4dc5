// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const defaultUserAgent = "repomake"

// Client creates per-token go-github clients sharing one transport.
type Client struct {
	apiURL    string
	http      *http.Client
	userAgent string
	log       *zap.SugaredLogger
}

type Option func(*Client) error

func New(opts ...Option) (*Client, error) {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithAPIURL points the client at a GitHub Enterprise server. An empty value
// keeps api.github.com.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) error {
		apiURL = strings.TrimSpace(apiURL)
		if apiURL == "" {
			c.apiURL = ""
			return nil
		}
		if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
			return fmt.Errorf("invalid api url: %s", apiURL)
		}
		c.apiURL = apiURL
		return nil
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client is required")
		}
		c.http = client
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

func (c *Client) forToken(ctx context.Context, token string) (*gh.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	client := gh.NewClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if c.apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(c.apiURL, c.apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid api url: %w", err)
		}
	}
	if c.userAgent != "" {
		client.UserAgent = c.userAgent
	}
	return client, nil
}

// HTTPError is a failed GitHub API call.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("github request failed (%d): %s", e.StatusCode, e.Message)
}

func asHTTPError(err error) error {
	var resp *gh.ErrorResponse
	if !errors.As(err, &resp) || resp.Response == nil {
		return err
	}
	parts := []string{strings.TrimSpace(resp.Message)}
	for _, detail := range resp.Errors {
		switch {
		case detail.Message != "":
			parts = append(parts, detail.Message)
		case detail.Field != "":
			parts = append(parts, detail.Field+" "+detail.Code)
		}
	}
	msg := strings.Trim(strings.Join(parts, ": "), ": ")
	if msg == "" {
		msg = resp.Response.Status
	}
	return &HTTPError{StatusCode: resp.Response.StatusCode, Message: msg}
}
