package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/internal/board/store/drivers/sqlite"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{ID: idx.New().String(), Email: email, Name: email, PasswordHash: "x", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedProject(t *testing.T, s store.Store, owner domain.User) domain.Project {
	t.Helper()
	ctx := context.Background()
	p := domain.Project{ID: idx.New().String(), Title: "Board", OwnerID: owner.ID, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Projects().CreateProject(ctx, p))
	require.NoError(t, s.Members().AddMember(ctx, domain.Member{ProjectID: p.ID, UserID: owner.ID, Role: domain.RoleOwner, AddedAt: t0}))
	return p
}

func newInvitation(p domain.Project, inviter domain.User, email string) domain.Invitation {
	id := idx.New().String()
	return domain.Invitation{
		ID: id, ProjectID: p.ID, Email: email, InvitedByID: inviter.ID, TokenHash: "hash-" + id,
		CreatedAt: t0, ExpiresAt: t0.Add(domain.InvitationTTL),
	}
}

func TestUsers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice@example.com")

	got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.True(t, got.CreatedAt.Equal(t0))

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMembers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	bob := seedUser(t, s, "bob@example.com")
	p := seedProject(t, s, owner)

	m := domain.Member{ProjectID: p.ID, UserID: bob.ID, Role: domain.RoleMember, AddedAt: t0.Add(time.Minute)}
	require.NoError(t, s.Members().AddMember(ctx, m))
	require.ErrorIs(t, s.Members().AddMember(ctx, m), store.ErrAlreadyExists)

	inserted, err := s.Members().EnsureMember(ctx, m)
	require.NoError(t, err)
	require.False(t, inserted)

	members, err := s.Members().ListMembers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, domain.RoleOwner, members[0].Role)
	require.Equal(t, "bob@example.com", members[1].Email)

	projects, err := s.Projects().ListProjectsForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, s.Members().RemoveMember(ctx, p.ID, bob.ID))
	require.ErrorIs(t, s.Members().RemoveMember(ctx, p.ID, bob.ID), store.ErrNotFound)
}

func TestOpenInvitationUniqueness(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	p := seedProject(t, s, owner)

	first := newInvitation(p, owner, "new@example.com")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, first))

	// A second open row for the same address is rejected by the index.
	second := newInvitation(p, owner, "new@example.com")
	require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, second), store.ErrAlreadyExists)

	// Superseding releases the slot.
	require.NoError(t, s.Invitations().SupersedeInvitation(ctx, first.ID, t0.Add(8*24*time.Hour)))
	require.NoError(t, s.Invitations().CreateInvitation(ctx, second))

	open, err := s.Invitations().GetOpenInvitation(ctx, p.ID, "new@example.com")
	require.NoError(t, err)
	require.Equal(t, second.ID, open.ID)

	all, err := s.Invitations().ListInvitationsByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].SupersededAt)
}

func TestConditionalResolution(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	p := seedProject(t, s, owner)

	inv := newInvitation(p, owner, "new@example.com")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	now := t0.Add(time.Hour)
	require.NoError(t, s.Invitations().MarkInvitationAccepted(ctx, inv.ID, now))
	require.ErrorIs(t, s.Invitations().MarkInvitationAccepted(ctx, inv.ID, now), store.ErrNotFound)
	require.ErrorIs(t, s.Invitations().MarkInvitationDeclined(ctx, inv.ID, now), store.ErrNotFound)
	require.ErrorIs(t, s.Invitations().DeletePendingInvitation(ctx, inv.ID, now), store.ErrNotFound)

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AcceptedAt)
	require.Nil(t, got.DeclinedAt)
	require.True(t, got.AcceptedAt.Equal(now))
}

func TestExpiredInvitationCannotResolve(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	p := seedProject(t, s, owner)

	inv := newInvitation(p, owner, "new@example.com")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	after := inv.ExpiresAt.Add(time.Nanosecond)
	require.ErrorIs(t, s.Invitations().MarkInvitationDeclined(ctx, inv.ID, after), store.ErrNotFound)
	require.ErrorIs(t, s.Invitations().RefreshInvitation(ctx, inv.ID, "other", after.Add(time.Hour), after), store.ErrNotFound)

	pending, err := s.Invitations().ListPendingInvitationsByEmail(ctx, "new@example.com", after)
	require.NoError(t, err)
	require.Empty(t, pending)

	pending, err = s.Invitations().ListPendingInvitationsByEmail(ctx, "new@example.com", t0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "Board", pending[0].ProjectTitle)
	require.Equal(t, "owner@example.com", pending[0].InviterEmail)
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	p := seedProject(t, s, owner)
	inv := newInvitation(p, owner, "new@example.com")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	require.NoError(t, s.Projects().DeleteProject(ctx, p.ID))

	_, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Members().GetMember(ctx, p.ID, owner.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		u := domain.User{ID: idx.New().String(), Email: "tx@example.com", Name: "tx", PasswordHash: "x", CreatedAt: t0, UpdatedAt: t0}
		require.NoError(t, tx.Users().CreateUser(ctx, u))
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().GetUserByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice@example.com")

	live := domain.RefreshToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "live", ExpiresAt: t0.Add(time.Hour), CreatedAt: t0}
	stale := domain.RefreshToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "stale", ExpiresAt: t0.Add(-time.Hour), CreatedAt: t0}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, live))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, stale))

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "live"))
	require.ErrorIs(t, s.RefreshTokens().RevokeRefreshToken(ctx, "live"), store.ErrNotFound)

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, t0)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}
