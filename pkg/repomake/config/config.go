// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	githuboauth "golang.org/x/oauth2/github"
	"gopkg.in/yaml.v2"

	"github.com/telekom/repomake/pkg/repomake/auth"
	"github.com/telekom/repomake/pkg/repomake/store"
)

const (
	VersionV1 = "v1"

	DefaultClientID    = "4f91be4bf76de7d2ee02"
	DefaultExchangeURL = "https://repomake.herokuapp.com/gettoken"
)

type Config struct {
	Version               string   `yaml:"version"`
	ClientID              string   `yaml:"client-id,omitempty"`
	AuthorizeURL          string   `yaml:"authorize-url,omitempty"`
	ExchangeURL           string   `yaml:"exchange-url,omitempty"`
	APIURL                string   `yaml:"api-url,omitempty"`
	CallbackPort          int      `yaml:"callback-port,omitempty"`
	CallbackTimeout       string   `yaml:"callback-timeout,omitempty"`
	Scopes                []string `yaml:"scopes,omitempty"`
	TokenStorage          string   `yaml:"token-storage,omitempty"`
	TokenDir              string   `yaml:"token-dir,omitempty"`
	CAFile                string   `yaml:"ca-file,omitempty"`
	InsecureSkipTLSVerify bool     `yaml:"insecure-skip-tls-verify,omitempty"`
}

func DefaultConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field. TokenDir stays empty so that it
// follows the config file location.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = VersionV1
	}
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.AuthorizeURL == "" {
		c.AuthorizeURL = githuboauth.Endpoint.AuthURL
	}
	if c.ExchangeURL == "" {
		c.ExchangeURL = DefaultExchangeURL
	}
	if c.CallbackPort == 0 {
		c.CallbackPort = auth.DefaultCallbackPort
	}
	if c.CallbackTimeout == "" {
		c.CallbackTimeout = auth.DefaultCallbackTimeout.String()
	}
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), auth.DefaultScopes...)
	}
	if c.TokenStorage == "" {
		c.TokenStorage = store.StorageFile
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) Validate() error {
	if c.Version != VersionV1 {
		return fmt.Errorf("unsupported config version: %s", c.Version)
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("client-id cannot be empty")
	}
	urls := []struct {
		key      string
		value    string
		optional bool
	}{
		{key: "authorize-url", value: c.AuthorizeURL},
		{key: "exchange-url", value: c.ExchangeURL},
		{key: "api-url", value: c.APIURL, optional: true},
	}
	for _, u := range urls {
		if u.value == "" && u.optional {
			continue
		}
		parsed, err := url.Parse(u.value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL: %q", u.key, u.value)
		}
	}
	if c.CallbackPort < 1 || c.CallbackPort > 65535 {
		return fmt.Errorf("callback-port out of range: %d", c.CallbackPort)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch c.TokenStorage {
	case store.StorageFile, store.StorageKeychain:
	default:
		return fmt.Errorf("token-storage must be %q or %q, got %q", store.StorageFile, store.StorageKeychain, c.TokenStorage)
	}
	return nil
}

// Timeout parses callback-timeout. Zero disables the bound.
func (c *Config) Timeout() (time.Duration, error) {
	if c.CallbackTimeout == "" {
		return auth.DefaultCallbackTimeout, nil
	}
	d, err := time.ParseDuration(c.CallbackTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid callback-timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("callback-timeout cannot be negative: %s", c.CallbackTimeout)
	}
	return d, nil
}

// ResolveTokenDir returns token-dir, or the directory holding the config
// file when it is unset.
func (c *Config) ResolveTokenDir(configPath string) string {
	if c.TokenDir != "" {
		return expandHome(c.TokenDir)
	}
	if configPath != "" {
		return filepath.Dir(configPath)
	}
	return DefaultDir()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
