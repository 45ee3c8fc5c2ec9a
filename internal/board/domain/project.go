package domain

import "time"

type Project struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Member is a (project, user) membership row. Email and Name are joined
// from users on reads and ignored on writes.
type Member struct {
	ProjectID string
	UserID    string
	Role      Role
	AddedAt   time.Time

	Email string
	Name  string
}
