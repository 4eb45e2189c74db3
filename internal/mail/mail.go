// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

// Package mail provides transactional email delivery for Hearthshop.
//
// The Notifier interface abstracts the delivery provider. The Dispatcher
// decouples sending from request handling: handlers enqueue a message and
// respond immediately; delivery failures are retried a bounded number of
// times and then logged, never surfaced to the user.
package mail

import (
	"context"
	"fmt"
)

// Message is a transactional email.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Notifier sends transactional email via an external delivery service.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SignupConfirmation builds the welcome mail sent after a successful signup.
func SignupConfirmation(from, to string) Message {
	return Message{
		To:      to,
		From:    from,
		Subject: "Signup succeeded",
		Text:    "Welcome once again",
		HTML:    "<h1>Welcome, shop whatever you like, anywhere at anytime.</h1>",
	}
}

// PasswordReset builds the reset-link mail. The plaintext token is embedded
// as a path segment of the reset URL.
func PasswordReset(from, to, baseURL, token string) Message {
	link := fmt.Sprintf("%s/reset/%s", baseURL, token)
	return Message{
		To:      to,
		From:    from,
		Subject: "Password reset",
		HTML: fmt.Sprintf(
			`<p>You requested a password reset</p>
<p>Click this <a href="%s">link</a> to set a new password</p>`, link),
	}
}
