// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "repomake"
	defaultConfigFile    = "config.yaml"
)

// DefaultConfigPath honours REPOMAKE_CONFIG, then the user config dir.
func DefaultConfigPath() string {
	if env := os.Getenv("REPOMAKE_CONFIG"); env != "" {
		return env
	}
	return filepath.Join(DefaultDir(), defaultConfigFile)
}

func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+defaultConfigDirName)
}
