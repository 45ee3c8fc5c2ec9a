package boardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// CreateProject creates a project owned by the signed-in user.
func (s *Session) CreateProject(ctx context.Context, req ProjectRequest) (*Project, error) {
	var p Project
	if err := s.sendJSON(ctx, http.MethodPost, "/api/projects", req, &p, http.StatusCreated); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every project the user is a member of.
func (s *Session) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := s.getJSON(ctx, "/api/projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var p Project
	if err := s.getJSON(ctx, projectPath(projectID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject replaces the title and description. Owner only.
func (s *Session) UpdateProject(ctx context.Context, projectID string, req ProjectRequest) (*Project, error) {
	var p Project
	if err := s.sendJSON(ctx, http.MethodPatch, projectPath(projectID), req, &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject removes the project with its members and invitations. Owner only.
func (s *Session) DeleteProject(ctx context.Context, projectID string) error {
	return s.delete(ctx, projectPath(projectID))
}

func (s *Session) ListMembers(ctx context.Context, projectID string) ([]Member, error) {
	var out []Member
	if err := s.getJSON(ctx, projectPath(projectID)+"/members", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveMember removes a member. Owner only; the owner cannot be removed.
func (s *Session) RemoveMember(ctx context.Context, projectID, userID string) error {
	return s.delete(ctx, projectPath(projectID)+"/members/"+url.PathEscape(userID))
}

func projectPath(projectID string) string {
	return "/api/projects/" + url.PathEscape(projectID)
}

func (s *Session) getJSON(ctx context.Context, path string, out any) error {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, http.StatusOK)
}

func (s *Session) sendJSON(ctx context.Context, method, path string, in, out any, expectedStatus int) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, method, path, bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}

func (s *Session) delete(ctx context.Context, path string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
