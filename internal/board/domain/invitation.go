package domain

import "time"

// InvitationTTL is how long an invitation link stays usable.
const InvitationTTL = 7 * 24 * time.Hour

type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusDeclined InvitationStatus = "declined"
	StatusExpired  InvitationStatus = "expired"
)

type Invitation struct {
	ID          string
	ProjectID   string
	Email       string // lower-cased target address
	InvitedByID string
	TokenHash   string // base64url SHA-256 of the raw token
	CreatedAt   time.Time
	ExpiresAt   time.Time

	AcceptedAt *time.Time
	DeclinedAt *time.Time

	// SupersededAt is stamped when an expired row is replaced by a fresh
	// invitation for the same address. It only releases the open-invite
	// slot; the row keeps reporting as expired.
	SupersededAt *time.Time
}

// Status derives the lifecycle state at now. It is never persisted.
func (i Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case i.AcceptedAt != nil:
		return StatusAccepted
	case i.DeclinedAt != nil:
		return StatusDeclined
	case !now.Before(i.ExpiresAt):
		return StatusExpired
	default:
		return StatusPending
	}
}

// IsPending reports whether the invitation can still be accepted or declined.
func (i Invitation) IsPending(now time.Time) bool {
	return i.Status(now) == StatusPending
}

// IsOpen reports whether the row still holds the (project, email) slot
// guarded by the open-invitation unique index.
func (i Invitation) IsOpen() bool {
	return i.AcceptedAt == nil && i.DeclinedAt == nil && i.SupersededAt == nil
}

// InvitationDetail is an invitation joined with the project and inviter
// columns needed by the public invite page and the notification bell.
type InvitationDetail struct {
	Invitation

	ProjectTitle       string
	ProjectDescription string
	InviterName        string
	InviterEmail       string
}
