package http

import (
	"net/http"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
	"github.com/aussiebroadwan/agileboard/pkg/httpx"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
)

type InvitationHandler struct {
	InvitationService *service.InvitationService
}

// HandleSend godoc
//
//	@Summary		Invite by email
//	@Description	Registered users are added to the project directly (direct_add). Otherwise an invitation email is sent (invitation_sent), or the pending one is refreshed with a new token and expiry (resent).
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Project ID"
//	@Param			request	body		boardsdk.InviteRequest	true	"Invitee"
//	@Success		201		{object}	boardsdk.SendInvitationResponse	"invitation_sent"
//	@Success		200		{object}	boardsdk.SendInvitationResponse	"direct_add or resent"
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse	"already a member or concurrent invite"
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id}/invite [post].
func (h *InvitationHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req boardsdk.InviteRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.InvitationService.SendInvitation(r.Context(), id, req.Email, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body, err := toSendResponse(res)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Kind == service.SendInvitationSent {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, body)
}

// HandleListPending godoc
//
//	@Summary		Pending invitations
//	@Description	Invitations still waiting on a response, oldest first.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Project ID"
//	@Success		200	{array}		boardsdk.Invitation
//	@Failure		403	{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id}/invitations [get].
func (h *InvitationHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	invs, err := h.InvitationService.ListProjectInvitations(r.Context(), id, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitations(invs, domain.StatusPending))
}

// HandleHistory godoc
//
//	@Summary		Invitation history
//	@Description	Accepted, declined and expired invitations. Expiry is evaluated at request time.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Project ID"
//	@Success		200	{object}	boardsdk.InvitationHistory
//	@Failure		403	{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id}/invitations/history [get].
func (h *InvitationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	hist, err := h.InvitationService.ProjectInvitationHistory(r.Context(), id, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, boardsdk.InvitationHistory{
		Accepted: toInvitations(hist.Accepted, domain.StatusAccepted),
		Declined: toInvitations(hist.Declined, domain.StatusDeclined),
		Expired:  toInvitations(hist.Expired, domain.StatusExpired),
		Total:    hist.Total,
	})
}

// HandleDelete godoc
//
//	@Summary		Retract invitation
//	@Description	Delete a pending invitation. Its link stops working immediately.
//	@Tags			Invitations
//	@Param			id				path	string	true	"Project ID"
//	@Param			invitationId	path	string	true	"Invitation ID"
//	@Success		204
//	@Failure		403	{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Failure		409	{object}	httpx.ErrorResponse	"no longer pending"
//	@Security		BearerAuth
//	@Router			/api/projects/{id}/invitations/{invitationId} [delete].
func (h *InvitationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	invitationID := r.PathValue("invitationId")
	if !idx.Valid(invitationID) {
		writeServiceError(w, r, service.ErrInvitationNotFound)
		return
	}

	if err := h.InvitationService.DeleteInvitation(r.Context(), id, invitationID, httpx.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleInfo godoc
//
//	@Summary		Invitation link info
//	@Description	Public details for an invite link. Accepted, declined and expired invitations are returned with their status; unknown or retracted tokens are 404.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	path		string	true	"Invitation token"
//	@Success		200		{object}	boardsdk.InvitationInfo
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Router			/api/invite/{token} [get].
func (h *InvitationHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.InvitationService.InvitationInfo(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitationInfo(info))
}

// HandleAccept godoc
//
//	@Summary		Accept invitation
//	@Description	Join the project. The signed-in user's email must match the invitation.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	path		string	true	"Invitation token"
//	@Success		200		{object}	boardsdk.RespondResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse	"email mismatch"
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse	"already accepted or declined"
//	@Failure		410		{object}	httpx.ErrorResponse	"expired"
//	@Security		BearerAuth
//	@Router			/api/invite/{token}/accept [post].
func (h *InvitationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.InvitationService.AcceptInvitation(ctx, r.PathValue("token"), httpx.UserIDFromContext(ctx), httpx.EmailFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, boardsdk.RespondResponse{
		Message: "You joined " + p.Title,
		Project: toProject(p),
	})
}

// HandleDecline godoc
//
//	@Summary		Decline invitation
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	path		string	true	"Invitation token"
//	@Success		200		{object}	boardsdk.RespondResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse	"email mismatch"
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse	"already accepted or declined"
//	@Failure		410		{object}	httpx.ErrorResponse	"expired"
//	@Security		BearerAuth
//	@Router			/api/invite/{token}/decline [post].
func (h *InvitationHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.InvitationService.DeclineInvitation(ctx, r.PathValue("token"), httpx.UserIDFromContext(ctx), httpx.EmailFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, boardsdk.RespondResponse{
		Message: "Invitation to " + p.Title + " declined",
		Project: toProject(p),
	})
}

// HandleListMine godoc
//
//	@Summary		My pending invitations
//	@Description	Pending invitations addressed to the signed-in user's email.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{array}		boardsdk.UserInvitation
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/user/invitations [get].
func (h *InvitationHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.InvitationService.ListUserInvitations(r.Context(), httpx.EmailFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserInvitations(list))
}
