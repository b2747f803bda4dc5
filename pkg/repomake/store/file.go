// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const TokenFileName = "token.json"

// FileStore keeps identities as a JSON array in <dir>/token.json.
type FileStore struct {
	path string
	log  *zap.SugaredLogger
}

func NewFileStore(dir string, log *zap.SugaredLogger) *FileStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FileStore{path: filepath.Join(dir, TokenFileName), log: log}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() Identities {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Debugw("Failed to read saved tokens, treating as empty", "path", s.path, "error", err)
		}
		return Identities{}
	}
	ids, err := decode(content)
	if err != nil {
		s.log.Debugw("Saved tokens are corrupt, treating as empty", "path", s.path, "error", err)
		return Identities{}
	}
	return ids
}

// Save replaces the file atomically: the content is written and synced to a
// temp file in the same directory and renamed over the target.
func (s *FileStore) Save(ids Identities) error {
	content, err := encode(ids)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	success = true
	s.log.Debugw("Saved tokens", "path", s.path, "count", len(ids))
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
