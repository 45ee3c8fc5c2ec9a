package http

import (
	"net/http"

	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
	"github.com/aussiebroadwan/agileboard/pkg/httpx"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
)

type ProjectHandler struct {
	ProjectService *service.ProjectService
}

// HandleCreate godoc
//
//	@Summary		Create project
//	@Description	Create a project owned by the caller. The caller becomes its first member with role owner.
//	@Tags			Projects
//	@Accept			json
//	@Produce		json
//	@Param			request	body		boardsdk.ProjectRequest	true	"Project"
//	@Success		201		{object}	boardsdk.Project
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects [post].
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req boardsdk.ProjectRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.ProjectService.CreateProject(r.Context(), httpx.UserIDFromContext(r.Context()), req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProject(p))
}

// HandleList godoc
//
//	@Summary		My projects
//	@Tags			Projects
//	@Produce		json
//	@Success		200	{array}		boardsdk.Project
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects [get].
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ps, err := h.ProjectService.ListProjects(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProjects(ps))
}

// HandleGet godoc
//
//	@Summary		Get project
//	@Tags			Projects
//	@Produce		json
//	@Param			id	path		string	true	"Project ID"
//	@Success		200	{object}	boardsdk.Project
//	@Failure		403	{object}	httpx.ErrorResponse	"not a member"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id} [get].
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	p, err := h.ProjectService.GetProject(r.Context(), id, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProject(p))
}

// HandleUpdate godoc
//
//	@Summary		Update project
//	@Tags			Projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Project ID"
//	@Param			request	body		boardsdk.ProjectRequest	true	"Project"
//	@Success		200		{object}	boardsdk.Project
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id} [patch].
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req boardsdk.ProjectRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.ProjectService.UpdateProject(r.Context(), id, httpx.UserIDFromContext(r.Context()), req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProject(p))
}

// HandleDelete godoc
//
//	@Summary		Delete project
//	@Description	Delete the project together with its members and invitations.
//	@Tags			Projects
//	@Param			id	path	string	true	"Project ID"
//	@Success		204
//	@Failure		403	{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id} [delete].
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	if err := h.ProjectService.DeleteProject(r.Context(), id, httpx.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListMembers godoc
//
//	@Summary		Project members
//	@Tags			Projects
//	@Produce		json
//	@Param			id	path		string	true	"Project ID"
//	@Success		200	{array}		boardsdk.Member
//	@Failure		403	{object}	httpx.ErrorResponse	"not a member"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/projects/{id}/members [get].
func (h *ProjectHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	members, err := h.ProjectService.ListMembers(r.Context(), id, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]boardsdk.Member, 0, len(members))
	for _, m := range members {
		out = append(out, toMember(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRemoveMember godoc
//
//	@Summary		Remove member
//	@Description	Remove a member from the project. The owner cannot be removed.
//	@Tags			Projects
//	@Param			id		path	string	true	"Project ID"
//	@Param			userId	path	string	true	"User ID"
//	@Success		204
//	@Failure		403	{object}	httpx.ErrorResponse	"not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Failure		409	{object}	httpx.ErrorResponse	"owner cannot be removed"
//	@Security		BearerAuth
//	@Router			/api/projects/{id}/members/{userId} [delete].
func (h *ProjectHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	userID := r.PathValue("userId")
	if !idx.Valid(userID) {
		writeServiceError(w, r, service.ErrMemberNotFound)
		return
	}

	if err := h.ProjectService.RemoveMember(r.Context(), id, userID, httpx.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// projectID reads and checks the {id} wildcard. Malformed IDs cannot
// exist, so they are reported as not found.
func projectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !idx.Valid(id) {
		writeServiceError(w, r, service.ErrProjectNotFound)
		return "", false
	}
	return id, true
}
