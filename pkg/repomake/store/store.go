// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const (
	StorageFile     = "file"
	StorageKeychain = "keychain"
)

// Store is the persisted list of identities. Load never fails: a missing or
// unreadable backend yields an empty list.
type Store interface {
	Load() Identities
	Save(ids Identities) error
	Clear() error
}

// Options configure New.
type Options struct {
	// Storage selects the backend: "file" (default) or "keychain".
	Storage string
	// Dir holds token.json for the file backend.
	Dir string
	Log *zap.SugaredLogger
}

func New(opts Options) (Store, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	switch opts.Storage {
	case "", StorageFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("token directory is required for %s storage", StorageFile)
		}
		return NewFileStore(opts.Dir, log), nil
	case StorageKeychain:
		return NewKeyringStore(log), nil
	default:
		return nil, fmt.Errorf("unsupported token storage: %s", opts.Storage)
	}
}

func decode(data []byte) (Identities, error) {
	var ids Identities
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse saved tokens: %w", err)
	}
	out := make(Identities, 0, len(ids))
	for _, id := range ids {
		if id.Token == "" {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func encode(ids Identities) ([]byte, error) {
	if ids == nil {
		ids = Identities{}
	}
	content, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal saved tokens: %w", err)
	}
	return content, nil
}
