// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package store persists the GitHub identities (login and access token) that
// repomake has obtained, either in a JSON file or in the OS keychain.
package store
