// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const (
	DefaultCallbackPort    = 50073
	DefaultCallbackTimeout = 5 * time.Minute
	loopbackHost           = "127.0.0.1"
)

var DefaultScopes = []string{"repo", "user"}

type FlowConfig struct {
	ClientID string
	// AuthorizeURL defaults to GitHub's authorize endpoint.
	AuthorizeURL string
	Scopes       []string
	// CallbackPort must match the callback URL registered for the OAuth app.
	// Zero picks a free port and is only meant for tests.
	CallbackPort int
	// Timeout bounds the wait for the callback; zero waits until ctx is done.
	Timeout   time.Duration
	NoBrowser bool
}

// Flow runs one browser based authorization round trip per FetchToken call.
type Flow struct {
	cfg       FlowConfig
	exchanger CodeExchanger
	open      BrowserOpener
	out       io.Writer
	log       *zap.SugaredLogger
	newState  func() (string, error)
}

type FlowOption func(*Flow)

func WithBrowserOpener(open BrowserOpener) FlowOption {
	return func(f *Flow) {
		if open != nil {
			f.open = open
		}
	}
}

func WithOutput(w io.Writer) FlowOption {
	return func(f *Flow) {
		if w != nil {
			f.out = w
		}
	}
}

func WithLogger(log *zap.SugaredLogger) FlowOption {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

func WithStateGenerator(gen func() (string, error)) FlowOption {
	return func(f *Flow) {
		if gen != nil {
			f.newState = gen
		}
	}
}

func NewFlow(cfg FlowConfig, exchanger CodeExchanger, opts ...FlowOption) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client-id is required")
	}
	if exchanger == nil {
		return nil, errors.New("code exchanger is required")
	}
	if cfg.CallbackPort < 0 || cfg.CallbackPort > 65535 {
		return nil, fmt.Errorf("invalid callback port: %d", cfg.CallbackPort)
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = githuboauth.Endpoint.AuthURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	f := &Flow{
		cfg:       cfg,
		exchanger: exchanger,
		open:      OpenBrowser,
		out:       os.Stdout,
		log:       zap.NewNop().Sugar(),
		newState:  NewStateToken,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// AuthURL is the GitHub authorize URL for one attempt.
func (f *Flow) AuthURL(state string, port int) string {
	oauthCfg := oauth2.Config{
		ClientID: f.cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.cfg.AuthorizeURL,
			TokenURL: githuboauth.Endpoint.TokenURL,
		},
		RedirectURL: RedirectURL(port),
		Scopes:      f.cfg.Scopes,
	}
	return oauthCfg.AuthCodeURL(state)
}

func RedirectURL(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

// FetchToken generates a state token, binds the callback listener, and only
// then sends the user to GitHub. It returns once the attempt resolves.
func (f *Flow) FetchToken(ctx context.Context) (string, error) {
	state, err := f.newState()
	if err != nil {
		return "", err
	}

	addr := net.JoinHostPort(loopbackHost, strconv.Itoa(f.cfg.CallbackPort))
	listener, err := ListenCallback(addr, state, f.exchanger, f.log)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = listener.Close()
	}()

	port := f.cfg.CallbackPort
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}
	authURL := f.AuthURL(state, port)

	_, _ = fmt.Fprintf(f.out, "Open the following URL in your browser to authorize repomake:\n%s\n", authURL)
	if !f.cfg.NoBrowser {
		if err := f.open(authURL); err != nil {
			f.log.Warnw("Could not open browser, open the URL manually", "error", err)
		}
	}

	f.log.Debugw("Waiting for authorization callback", "port", port, "timeout", f.cfg.Timeout)
	return listener.Wait(ctx, f.cfg.Timeout)
}
