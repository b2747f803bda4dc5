// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package github talks to the GitHub REST API on behalf of an access token:
// it verifies which login owns a token and creates repositories.
package github
