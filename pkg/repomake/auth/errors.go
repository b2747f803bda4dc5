// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import "errors"

var (
	ErrPortInUse           = errors.New("callback port is not available")
	ErrStateMismatch       = errors.New("problem with authentication: state mismatch")
	ErrAuthorizationDenied = errors.New("authorization was denied")
	ErrMissingCode         = errors.New("missing code in callback")
	ErrExchange            = errors.New("could not auth with GitHub")
	ErrTimeout             = errors.New("timed out waiting for authorization callback")
	ErrTokenInvalid        = errors.New("cannot retrieve data from GitHub with this token")
)
