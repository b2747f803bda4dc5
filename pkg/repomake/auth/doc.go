// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package auth obtains a GitHub access token for repomake. It runs the
// browser based authorization code flow against a single-shot loopback
// listener, exchanges the code through the repomake token service and decides
// between saved and freshly issued tokens.
package auth
