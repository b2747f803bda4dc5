// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package store

import "strings"

// Identity pairs a GitHub login with the access token it was verified with.
type Identity struct {
	Login string `json:"login"`
	Token string `json:"token"`
}

// Identities is ordered oldest to newest. The last element is the most
// recently used identity.
type Identities []Identity

func (ids Identities) Contains(token string) bool {
	for _, id := range ids {
		if id.Token == token {
			return true
		}
	}
	return false
}

// Without returns a copy with every record carrying token removed.
func (ids Identities) Without(token string) Identities {
	out := make(Identities, 0, len(ids))
	for _, id := range ids {
		if id.Token != token {
			out = append(out, id)
		}
	}
	return out
}

// WithoutLogin returns a copy with every record for login removed.
func (ids Identities) WithoutLogin(login string) Identities {
	out := make(Identities, 0, len(ids))
	for _, id := range ids {
		if id.Login != login {
			out = append(out, id)
		}
	}
	return out
}

// Append adds identity as the most recently used record. Records are unique
// by token, so an existing record with the same token is replaced.
func (ids Identities) Append(identity Identity) Identities {
	return append(ids.Without(identity.Token), identity)
}

func (ids Identities) MostRecent() (Identity, bool) {
	if len(ids) == 0 {
		return Identity{}, false
	}
	return ids[len(ids)-1], true
}

// NewestFirst returns the identities in the order they are offered to the user.
func (ids Identities) NewestFirst() Identities {
	out := make(Identities, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// MaskToken keeps the first four characters of a token for display and logs.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", 8)
}
