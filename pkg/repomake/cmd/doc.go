// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the cobra command tree for the repomake CLI: the
// root command that creates a repository, saved token management,
// configuration, version and shell completion.
package cmd
