package boardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SendInvitation invites email to the project. The result Type tells the
// caller whether the user was added directly, invited or re-invited.
// Owner only.
func (s *Session) SendInvitation(ctx context.Context, projectID, email string) (*SendInvitationResponse, error) {
	body, err := json.Marshal(InviteRequest{Email: email})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, projectPath(projectID)+"/invite", bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return nil, err
	}

	// 201 for a new invitation, 200 for a direct add or a resend.
	expected := http.StatusOK
	if resp.StatusCode == http.StatusCreated {
		expected = http.StatusCreated
	}

	var out SendInvitationResponse
	if err := decodeJSON(resp, &out, expected); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPendingInvitations returns the project's open invitations. Owner only.
func (s *Session) ListPendingInvitations(ctx context.Context, projectID string) ([]Invitation, error) {
	var out []Invitation
	if err := s.getJSON(ctx, projectPath(projectID)+"/invitations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InvitationHistory returns accepted, declined and expired invitations. Owner only.
func (s *Session) InvitationHistory(ctx context.Context, projectID string) (*InvitationHistory, error) {
	var out InvitationHistory
	if err := s.getJSON(ctx, projectPath(projectID)+"/invitations/history", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteInvitation retracts a pending invitation. Owner only.
func (s *Session) DeleteInvitation(ctx context.Context, projectID, invitationID string) error {
	return s.delete(ctx, projectPath(projectID)+"/invitations/"+url.PathEscape(invitationID))
}

// ListMyInvitations returns the pending invitations addressed to the
// signed-in user's email.
func (s *Session) ListMyInvitations(ctx context.Context) ([]UserInvitation, error) {
	var out []UserInvitation
	if err := s.getJSON(ctx, "/api/user/invitations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CanRespond reports whether the signed-in user may answer the invitation.
// Emails compare case-insensitively.
func (s *Session) CanRespond(ctx context.Context, info *InvitationInfo) (bool, error) {
	if info == nil {
		return false, nil
	}
	me, err := s.Me(ctx)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(me.Email), strings.TrimSpace(info.Email)), nil
}

// AcceptInvitation joins the project behind token. It returns
// ErrEmailMismatch without contacting the accept endpoint when the
// invitation is addressed to another email.
func (s *Session) AcceptInvitation(ctx context.Context, token string) (*RespondResponse, error) {
	return s.respond(ctx, token, "accept")
}

// DeclineInvitation declines the invitation behind token. The same email
// check as AcceptInvitation applies.
func (s *Session) DeclineInvitation(ctx context.Context, token string) (*RespondResponse, error) {
	return s.respond(ctx, token, "decline")
}

func (s *Session) respond(ctx context.Context, token, action string) (*RespondResponse, error) {
	info, err := s.client.InvitationInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	ok, err := s.CanRespond(ctx, info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmailMismatch
	}

	path := "/api/invite/" + url.PathEscape(token) + "/" + action
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out RespondResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
