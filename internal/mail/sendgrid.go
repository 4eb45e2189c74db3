// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package mail

import (
	"context"

	"github.com/samber/oops"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridNotifier implements Notifier using the SendGrid v3 API.
// The API key is injected at construction; the notifier never reads the
// process environment itself.
type SendGridNotifier struct {
	client *sendgrid.Client
}

// NewSendGridNotifier creates a SendGridNotifier.
// Returns an error if the API key is empty.
func NewSendGridNotifier(apiKey string) (*SendGridNotifier, error) {
	if apiKey == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("SendGrid API key is required")
	}
	return &SendGridNotifier{client: sendgrid.NewSendClient(apiKey)}, nil
}

// Send delivers a message through SendGrid.
func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail("", msg.From)
	to := sgmail.NewEmail("", msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := n.client.SendWithContext(ctx, email)
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "sendgrid send").
			With("to", msg.To).
			Wrap(err)
	}
	if resp.StatusCode >= 400 {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "sendgrid send").
			With("to", msg.To).
			With("status_code", resp.StatusCode).
			Errorf("sendgrid rejected message: %s", resp.Body)
	}
	return nil
}

// Compile-time interface check.
var _ Notifier = (*SendGridNotifier)(nil)
