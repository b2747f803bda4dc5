// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

const (
	keyringService = "repomake"
	keyringUser    = "identities"
)

// KeyringStore keeps the identity list as a single secret in the OS keychain.
type KeyringStore struct {
	service string
	user    string
	log     *zap.SugaredLogger
}

func NewKeyringStore(log *zap.SugaredLogger) *KeyringStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &KeyringStore{service: keyringService, user: keyringUser, log: log}
}

func (s *KeyringStore) Load() Identities {
	secret, err := keyring.Get(s.service, s.user)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			s.log.Debugw("Failed to read keychain, treating as empty", "service", s.service, "error", err)
		}
		return Identities{}
	}
	ids, err := decode([]byte(secret))
	if err != nil {
		s.log.Debugw("Keychain entry is corrupt, treating as empty", "service", s.service, "error", err)
		return Identities{}
	}
	return ids
}

func (s *KeyringStore) Save(ids Identities) error {
	content, err := encode(ids)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, s.user, string(content)); err != nil {
		return fmt.Errorf("failed to write keychain: %w", err)
	}
	s.log.Debugw("Saved tokens", "service", s.service, "count", len(ids))
	return nil
}

func (s *KeyringStore) Clear() error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keychain entry: %w", err)
	}
	return nil
}
