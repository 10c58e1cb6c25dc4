// Package notify delivers fee reminders to students and parents.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrNoRecipients is returned when a reminder has nowhere to go
var ErrNoRecipients = errors.New("no recipients")

// Notifier sends a plain-text reminder to a list of addresses
type Notifier interface {
	SendReminder(ctx context.Context, recipients []string, subject, body string) error
}

// LogNotifier writes reminders to the log instead of sending them. Used in
// development and whenever no mail provider is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendReminder(ctx context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	n.logger.InfoContext(ctx, "reminder",
		"to", strings.Join(recipients, ", "),
		"subject", subject,
		"body", body,
	)
	return nil
}
