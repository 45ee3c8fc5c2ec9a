package mail_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/mail"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	msgs []mail.Message
}

func (c *captureMailer) Send(_ context.Context, msg mail.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestInvitationNotifier(t *testing.T) {
	capture := &captureMailer{}
	n := &mail.InvitationNotifier{Mailer: capture, BaseURL: "https://board.example.com/"}

	err := n.SendInvitation(context.Background(), service.InvitationMessage{
		To:                 "new@x.com",
		Token:              "tok_123",
		ProjectTitle:       "Roadmap",
		ProjectDescription: "Q3 <planning>",
		InviterName:        "Olive Owner",
		ExpiresAt:          time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, capture.msgs, 1)

	msg := capture.msgs[0]
	require.Equal(t, "new@x.com", msg.To)
	require.Equal(t, "You're invited to Roadmap", msg.Subject)
	require.Contains(t, msg.Text, "https://board.example.com/invite/tok_123")
	require.Contains(t, msg.Text, "Olive Owner invited you")
	require.Contains(t, msg.Text, "Q3 <planning>")
	require.Contains(t, msg.HTML, `href="https://board.example.com/invite/tok_123"`)
	require.Contains(t, msg.HTML, "Q3 &lt;planning&gt;")
}

func TestInvitationNotifier_Resent(t *testing.T) {
	capture := &captureMailer{}
	n := &mail.InvitationNotifier{Mailer: capture, BaseURL: "http://localhost:3000"}

	err := n.SendInvitation(context.Background(), service.InvitationMessage{
		To:           "new@x.com",
		Token:        "abc",
		ProjectTitle: "Roadmap",
		InviterEmail: "owner@x.com",
		Resent:       true,
	})
	require.NoError(t, err)
	require.Equal(t, "Reminder: you're invited to Roadmap", capture.msgs[0].Subject)
	require.Contains(t, capture.msgs[0].Text, "owner@x.com invited you")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := mail.LogMailer{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, m.Send(context.Background(), mail.Message{To: "a@x.com", Subject: "hello"}))
	require.Contains(t, buf.String(), "a@x.com")
	require.Contains(t, buf.String(), "hello")

	require.ErrorIs(t, m.Send(context.Background(), mail.Message{}), mail.ErrNoRecipient)
}

func TestNewSMTPMailer(t *testing.T) {
	_, err := mail.NewSMTPMailer(mail.SMTPConfig{From: "a@x.com"})
	require.Error(t, err)

	_, err = mail.NewSMTPMailer(mail.SMTPConfig{Host: "smtp.x.com"})
	require.Error(t, err)

	_, err = mail.NewSMTPMailer(mail.SMTPConfig{Host: "smtp.x.com", From: "a@x.com", Encryption: "rot13"})
	require.Error(t, err)

	m, err := mail.NewSMTPMailer(mail.SMTPConfig{Host: "smtp.x.com", Port: 587, From: "a@x.com", Encryption: "STARTTLS"})
	require.NoError(t, err)
	require.ErrorIs(t, m.Send(context.Background(), mail.Message{}), mail.ErrNoRecipient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Send(ctx, mail.Message{To: "b@x.com"}), context.Canceled)
}
