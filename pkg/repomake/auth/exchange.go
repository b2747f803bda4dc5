// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CodeExchanger turns an authorization code into an access token.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// ExchangeClient calls the repomake token service, which holds the OAuth
// client secret and performs the code exchange with GitHub on our behalf.
type ExchangeClient struct {
	endpoint *url.URL
	http     *http.Client
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

func NewExchangeClient(endpoint string, httpClient *http.Client) (*ExchangeClient, error) {
	if endpoint == "" {
		return nil, errors.New("exchange url is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid exchange url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid exchange url: %s", endpoint)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ExchangeClient{endpoint: parsed, http: httpClient}, nil
}

// Exchange performs one exchange. It never retries: a used code is invalid.
func (c *ExchangeClient) Exchange(ctx context.Context, code string) (string, error) {
	reqURL := *c.endpoint
	query := reqURL.Query()
	query.Set("code", code)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrExchange, err)
	}
	var payload exchangeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("%w: token service returned %s", ErrExchange, resp.Status)
		}
		return "", fmt.Errorf("%w: malformed response: %v", ErrExchange, err)
	}
	if payload.Error != "" {
		msg := payload.Error
		if payload.ErrorDesc != "" {
			msg = msg + ": " + payload.ErrorDesc
		}
		return "", fmt.Errorf("%w: %s", ErrExchange, msg)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token service returned %s", ErrExchange, resp.Status)
	}
	token := strings.TrimSpace(payload.AccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrExchange)
	}
	return token, nil
}
