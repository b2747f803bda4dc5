// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const stateTokenBytes = 16

var randReader io.Reader = rand.Reader

// NewStateToken returns a fresh hex encoded nonce for one authorization attempt.
func NewStateToken() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
