package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so a Tx can hand
// out the same repos bound to the transaction, which stops callers from
// nesting transactions by accident.
//
// Times are always passed in by the caller rather than read from the
// database clock, so services can run against an injected clock.
type Store interface {
	Users() Users
	Projects() Projects
	Members() Members
	Invitations() Invitations
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Inside fn only use the repos of tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. A taken email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already-normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

type Projects interface {
	CreateProject(ctx context.Context, p domain.Project) error
	GetProjectByID(ctx context.Context, id string) (domain.Project, error)

	// ListProjectsForUser returns every project the user is a member of,
	// newest first.
	ListProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error)

	// UpdateProject rewrites title and description and bumps updated_at.
	UpdateProject(ctx context.Context, id, title, description string, at time.Time) error

	// DeleteProject cascades to members and invitations (per schema).
	DeleteProject(ctx context.Context, id string) error
}

type Members interface {
	// AddMember inserts a membership. A duplicate yields ErrAlreadyExists.
	AddMember(ctx context.Context, m domain.Member) error

	// EnsureMember inserts a membership unless one already exists and
	// reports whether a row was written.
	EnsureMember(ctx context.Context, m domain.Member) (bool, error)

	GetMember(ctx context.Context, projectID, userID string) (domain.Member, error)

	// ListMembers returns members joined with user email and name, owner
	// first then by added_at.
	ListMembers(ctx context.Context, projectID string) ([]domain.Member, error)

	// RemoveMember deletes a membership, ErrNotFound when absent.
	RemoveMember(ctx context.Context, projectID, userID string) error
}

type Invitations interface {
	// CreateInvitation inserts an invitation. A second open row for the same
	// (project, email) or a token hash collision yields ErrAlreadyExists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationDetailByTokenHash returns the invitation joined with its
	// project and inviter.
	GetInvitationDetailByTokenHash(ctx context.Context, hash string) (domain.InvitationDetail, error)

	// GetOpenInvitation returns the row holding the open slot for
	// (project, email). It may already be expired.
	GetOpenInvitation(ctx context.Context, projectID, email string) (domain.Invitation, error)

	// ListInvitationsByProject returns every invitation ever issued for the
	// project, oldest first.
	ListInvitationsByProject(ctx context.Context, projectID string) ([]domain.Invitation, error)

	// ListPendingInvitationsByEmail returns invitations addressed to email
	// that are still pending at now, with project and inviter joined.
	ListPendingInvitationsByEmail(ctx context.Context, email string, now time.Time) ([]domain.InvitationDetail, error)

	// RefreshInvitation swaps the token and pushes out the expiry of a
	// pending invitation. ErrNotFound when it stopped being pending.
	RefreshInvitation(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error

	// SupersedeInvitation releases the open slot held by an expired row.
	SupersedeInvitation(ctx context.Context, id string, at time.Time) error

	// MarkInvitationAccepted and MarkInvitationDeclined are single
	// conditional updates guarded by the invitation being pending at now.
	// ErrNotFound means another request resolved it first.
	MarkInvitationAccepted(ctx context.Context, id string, now time.Time) error
	MarkInvitationDeclined(ctx context.Context, id string, now time.Time) error

	// DeletePendingInvitation hard-deletes the invitation if it is still
	// pending at now, ErrNotFound otherwise.
	DeletePendingInvitation(ctx context.Context, id string, now time.Time) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked. ErrNotFound when the token is
	// unknown or already revoked, which lets rotation detect replays.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// DeleteExpiredRefreshTokens removes tokens past expiry or revoked.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
