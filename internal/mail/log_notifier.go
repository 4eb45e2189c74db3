// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package mail

import (
	"context"
	"log/slog"
)

// LogNotifier logs messages instead of delivering them. Used when no
// SendGrid API key is configured, e.g. local development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogNotifier{logger: logger}
}

var _ Notifier = (*LogNotifier)(nil)

// Send logs the message and reports success.
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "mail delivery skipped, no provider configured",
		"to", msg.To, "subject", msg.Subject)
	return nil
}
