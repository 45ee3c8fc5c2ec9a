package http

import (
	"fmt"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
)

func toUser(u domain.User) boardsdk.User {
	return boardsdk.User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func toProject(p domain.Project) boardsdk.Project {
	return boardsdk.Project{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProjects(ps []domain.Project) []boardsdk.Project {
	out := make([]boardsdk.Project, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProject(p))
	}
	return out
}

func toMember(m domain.Member) boardsdk.Member {
	return boardsdk.Member{
		UserID:  m.UserID,
		Email:   m.Email,
		Name:    m.Name,
		Role:    string(m.Role),
		AddedAt: m.AddedAt,
	}
}

func toInvitation(inv domain.Invitation, status domain.InvitationStatus) boardsdk.Invitation {
	return boardsdk.Invitation{
		ID:          inv.ID,
		ProjectID:   inv.ProjectID,
		Email:       inv.Email,
		InvitedByID: inv.InvitedByID,
		Status:      string(status),
		CreatedAt:   inv.CreatedAt,
		ExpiresAt:   inv.ExpiresAt,
		AcceptedAt:  inv.AcceptedAt,
		DeclinedAt:  inv.DeclinedAt,
	}
}

func toInvitations(invs []domain.Invitation, status domain.InvitationStatus) []boardsdk.Invitation {
	out := make([]boardsdk.Invitation, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitation(inv, status))
	}
	return out
}

func toInvitationInfo(info service.InvitationInfo) boardsdk.InvitationInfo {
	return boardsdk.InvitationInfo{
		Email:              info.Email,
		ProjectID:          info.ProjectID,
		ProjectTitle:       info.ProjectTitle,
		ProjectDescription: info.ProjectDescription,
		InviterName:        info.InviterName,
		InviterEmail:       info.InviterEmail,
		Status:             string(info.Status),
		CreatedAt:          info.CreatedAt,
		ExpiresAt:          info.ExpiresAt,
	}
}

func toUserInvitations(ds []domain.InvitationDetail) []boardsdk.UserInvitation {
	out := make([]boardsdk.UserInvitation, 0, len(ds))
	for _, d := range ds {
		out = append(out, boardsdk.UserInvitation{
			ID:           d.ID,
			ProjectID:    d.ProjectID,
			ProjectTitle: d.ProjectTitle,
			InviterName:  d.InviterName,
			InviterEmail: d.InviterEmail,
			CreatedAt:    d.CreatedAt,
			ExpiresAt:    d.ExpiresAt,
		})
	}
	return out
}

func toSendResponse(res service.SendResult) (boardsdk.SendInvitationResponse, error) {
	out := boardsdk.SendInvitationResponse{Type: string(res.Kind), Token: res.Token}
	switch res.Kind {
	case service.SendDirectAdd:
		out.Message = "User added to the project"
	case service.SendInvitationSent:
		out.Message = "Invitation sent"
	case service.SendResent:
		out.Message = "Invitation resent"
	default:
		return boardsdk.SendInvitationResponse{}, fmt.Errorf("unknown send result kind %q", res.Kind)
	}
	if res.Member != nil {
		m := toMember(*res.Member)
		out.Member = &m
	}
	if res.Invitation != nil {
		inv := toInvitation(*res.Invitation, domain.StatusPending)
		out.Invitation = &inv
	}
	return out, nil
}
