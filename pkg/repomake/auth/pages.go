// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

const htmlContentType = "text/html; charset=utf-8"

var (
	successPage = []byte(`<!DOCTYPE html>
<html><head><title>repomake</title></head>
<body><h1>Authorized</h1>
<p>Successfully received auth code from GitHub. Please return to the terminal. This window will close.</p>
<script>setTimeout(function () { window.close(); }, 2000);</script>
</body></html>`)

	failurePage = []byte(`<!DOCTYPE html>
<html><head><title>repomake</title></head>
<body><h1>Authentication failed</h1>
<p>Problem with authentication. Please return to the terminal and try again.</p>
<script>setTimeout(function () { window.close(); }, 2000);</script>
</body></html>`)

	alreadyHandledPage = []byte(`<!DOCTYPE html>
<html><head><title>repomake</title></head>
<body><p>This authorization request was already handled. You can close this window.</p></body></html>`)
)
