package service

import (
	"context"
	"time"
)

// InvitationMessage is everything an outgoing invitation email needs.
// Token is the raw capability token; it is never persisted.
type InvitationMessage struct {
	To                 string
	Token              string
	ProjectTitle       string
	ProjectDescription string
	InviterName        string
	InviterEmail       string
	ExpiresAt          time.Time
	Resent             bool
}

// Notifier delivers invitation emails. Delivery is best-effort: a failure
// is logged and counted but never fails the invitation itself.
type Notifier interface {
	SendInvitation(ctx context.Context, msg InvitationMessage) error
}
