// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telekom/repomake/pkg/repomake/config"
	"github.com/telekom/repomake/pkg/repomake/store"
)

// backends stands in for the token service and the GitHub REST API.
type backends struct {
	mu       sync.Mutex
	codes    map[string]string // authorization code -> access token
	logins   map[string]string // access token -> login
	taken    map[string]bool   // repository names that already exist
	created  []map[string]any
	exchange *httptest.Server
	api      *httptest.Server
}

func newBackends(t *testing.T) *backends {
	t.Helper()
	b := &backends{
		codes:  map[string]string{"code-1": "abc"},
		logins: map[string]string{"abc": "alice"},
		taken:  map[string]bool{},
	}

	b.exchange = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		token, ok := b.codes[r.URL.Query().Get("code")]
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}))
	t.Cleanup(b.exchange.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user", func(w http.ResponseWriter, r *http.Request) {
		login, ok := b.login(r)
		if !ok {
			apiJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
			return
		}
		apiJSON(w, http.StatusOK, map[string]any{"login": login})
	})
	mux.HandleFunc("/api/v3/user/repos", func(w http.ResponseWriter, r *http.Request) {
		login, ok := b.login(r)
		if !ok || r.Method != http.MethodPost {
			apiJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
			return
		}
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		name, _ := payload["name"].(string)
		b.mu.Lock()
		if b.taken[name] {
			b.mu.Unlock()
			apiJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Repository creation failed.",
				"errors":  []map[string]any{{"resource": "Repository", "field": "name", "code": "custom", "message": "name already exists on this account"}},
			})
			return
		}
		b.created = append(b.created, payload)
		b.mu.Unlock()
		apiJSON(w, http.StatusCreated, map[string]any{
			"id":             99,
			"full_name":      login + "/" + name,
			"html_url":       "https://github.example/" + login + "/" + name,
			"ssh_url":        "git@github.example:" + login + "/" + name + ".git",
			"default_branch": "main",
		})
	})
	b.api = httptest.NewServer(mux)
	t.Cleanup(b.api.Close)
	return b
}

func (b *backends) login(r *http.Request) (string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	b.mu.Lock()
	defer b.mu.Unlock()
	login, ok := b.logins[token]
	return login, ok
}

func (b *backends) createdRepos() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.created...)
}

func apiJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// browser follows the authorization URL the way GitHub would after the user
// approved: it calls the redirect URI with a code and the issued state.
type browser struct {
	mu     sync.Mutex
	code   string
	opened []string
}

func (b *browser) open(authURL string) error {
	b.mu.Lock()
	b.opened = append(b.opened, authURL)
	b.mu.Unlock()

	parsed, err := url.Parse(authURL)
	if err != nil {
		return err
	}
	query := parsed.Query()
	callback := fmt.Sprintf("%s?code=%s&state=%s", query.Get("redirect_uri"), url.QueryEscape(b.code), url.QueryEscape(query.Get("state")))
	resp, err := http.Get(callback) //nolint:gosec // test callback on loopback
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (b *browser) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.opened)
}

type testEnv struct {
	configPath string
	tokenDir   string
	backends   *backends
	browser    *browser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		tokenDir:   t.TempDir(),
		backends:   newBackends(t),
		browser:    &browser{code: "code-1"},
	}
	cfg := config.DefaultConfig()
	cfg.ExchangeURL = env.backends.exchange.URL + "/gettoken"
	cfg.APIURL = env.backends.api.URL
	cfg.CallbackPort = freePort(t)
	cfg.CallbackTimeout = "10s"
	cfg.TokenDir = env.tokenDir
	require.NoError(t, config.Save(env.configPath, &cfg))
	return env
}

func (e *testEnv) store() *store.FileStore {
	return store.NewFileStore(e.tokenDir, nil)
}

// run executes the root command with input fed to the prompts.
func (e *testEnv) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommand(Config{
		ConfigPath:   e.configPath,
		OutputWriter: out,
		ErrorWriter:  &bytes.Buffer{},
		Input:        strings.NewReader(input),
		OpenBrowser:  e.browser.open,
		WorkingDir:   filepath.Join(t.TempDir(), "my-project"),
	})
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}
