// Package mail delivers outgoing email. The SMTP mailer talks to a real
// relay; the log mailer is used when no relay is configured.
package mail

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNoRecipient = errors.New("mail: message has no recipient")

// Message is a single outgoing email with a plain-text body and an
// optional HTML alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the logger instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.Logger.InfoContext(ctx, "mail not sent, no SMTP relay configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Text),
	)
	return nil
}
