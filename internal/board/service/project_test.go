package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user("owner@x.com")

	p, err := h.projects.CreateProject(ctx, owner.ID, "  Roadmap ", "")
	require.NoError(t, err)
	require.Equal(t, "Roadmap", p.Title)
	require.Equal(t, owner.ID, p.OwnerID)

	members, err := h.projects.ListMembers(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, domain.RoleOwner, members[0].Role)
	require.Equal(t, owner.Email, members[0].Email)

	_, err = h.projects.CreateProject(ctx, owner.ID, "   ", "")
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = h.projects.CreateProject(ctx, owner.ID, strings.Repeat("x", 121), "")
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestListProjects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user("owner@x.com")
	other := h.user("other@x.com")

	first := h.project(owner)
	h.advance(time.Minute)
	second := h.project(owner)
	h.project(other)

	list, err := h.projects.ListProjects(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestProjectAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user("owner@x.com")
	member := h.user("member@x.com")
	stranger := h.user("stranger@x.com")
	p := h.project(owner)

	_, err := h.invitations.SendInvitation(ctx, p.ID, member.Email, owner.ID)
	require.NoError(t, err)

	got, err := h.projects.GetProject(ctx, p.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	_, err = h.projects.GetProject(ctx, p.ID, stranger.ID)
	require.ErrorIs(t, err, service.ErrNotProjectMember)
	_, err = h.projects.ListMembers(ctx, p.ID, stranger.ID)
	require.ErrorIs(t, err, service.ErrNotProjectMember)
	_, err = h.projects.GetProject(ctx, "missing", owner.ID)
	require.ErrorIs(t, err, service.ErrProjectNotFound)

	_, err = h.projects.UpdateProject(ctx, p.ID, member.ID, "Hijack", "")
	require.ErrorIs(t, err, service.ErrNotProjectOwner)
	require.ErrorIs(t, h.projects.DeleteProject(ctx, p.ID, member.ID), service.ErrNotProjectOwner)
	require.ErrorIs(t, h.projects.RemoveMember(ctx, p.ID, owner.ID, member.ID), service.ErrNotProjectOwner)
}

func TestUpdateProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user("owner@x.com")
	p := h.project(owner)

	h.advance(time.Hour)
	updated, err := h.projects.UpdateProject(ctx, p.ID, owner.ID, "Renamed", "new text")
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.True(t, updated.UpdatedAt.Equal(h.now))

	got, err := h.projects.GetProject(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, "new text", got.Description)
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user("owner@x.com")
	member := h.user("member@x.com")
	p := h.project(owner)

	_, err := h.invitations.SendInvitation(ctx, p.ID, member.Email, owner.ID)
	require.NoError(t, err)

	require.ErrorIs(t, h.projects.RemoveMember(ctx, p.ID, owner.ID, owner.ID), service.ErrCannotRemoveOwner)
	require.NoError(t, h.projects.RemoveMember(ctx, p.ID, member.ID, owner.ID))
	require.ErrorIs(t, h.projects.RemoveMember(ctx, p.ID, member.ID, owner.ID), service.ErrMemberNotFound)
	require.Equal(t, 1, h.memberCount(p.ID))
}

func TestDeleteProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user("owner@x.com")
	p := h.project(owner)

	require.NoError(t, h.projects.DeleteProject(ctx, p.ID, owner.ID))
	_, err := h.projects.GetProject(ctx, p.ID, owner.ID)
	require.ErrorIs(t, err, service.ErrProjectNotFound)

	list, err := h.projects.ListProjects(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
