package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

type ProjectService struct {
	Store store.Store
	Now   Clock
}

type projectInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateProject stores the project and its owner membership together.
func (s *ProjectService) CreateProject(ctx context.Context, ownerID, title, description string) (domain.Project, error) {
	log := slogx.FromContext(ctx)

	in := projectInput{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := validateStruct(in); err != nil {
		return domain.Project{}, err
	}

	now := s.Now.now()
	project := domain.Project{
		ID:          idx.NewAt(now).String(),
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Projects().CreateProject(ctx, project); err != nil {
			return err
		}
		return tx.Members().AddMember(ctx, domain.Member{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      domain.RoleOwner,
			AddedAt:   now,
		})
	})
	if err != nil {
		log.Error("failed to create project", slog.Any("error", err))
		return domain.Project{}, err
	}

	log.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("owner_id", ownerID),
	)
	return project, nil
}

// ListProjects returns the projects userID belongs to, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	projects, err := s.Store.Projects().ListProjectsForUser(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list projects", slog.Any("error", err))
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, projectID, userID string) (domain.Project, error) {
	return requireMember(ctx, s.Store, projectID, userID)
}

func (s *ProjectService) UpdateProject(ctx context.Context, projectID, userID, title, description string) (domain.Project, error) {
	log := slogx.FromContext(ctx)

	project, err := requireOwner(ctx, s.Store, projectID, userID)
	if err != nil {
		return domain.Project{}, err
	}

	in := projectInput{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := validateStruct(in); err != nil {
		return domain.Project{}, err
	}

	now := s.Now.now()
	if err := s.Store.Projects().UpdateProject(ctx, projectID, in.Title, in.Description, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		log.Error("failed to update project", slog.Any("error", err))
		return domain.Project{}, err
	}

	project.Title = in.Title
	project.Description = in.Description
	project.UpdatedAt = now
	return project, nil
}

// DeleteProject removes the project; members and invitations go with it.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, userID string) error {
	log := slogx.FromContext(ctx)

	if _, err := requireOwner(ctx, s.Store, projectID, userID); err != nil {
		return err
	}

	if err := s.Store.Projects().DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		log.Error("failed to delete project", slog.Any("error", err))
		return err
	}

	log.Info("project deleted", slog.String("project_id", projectID))
	return nil
}

func (s *ProjectService) ListMembers(ctx context.Context, projectID, userID string) ([]domain.Member, error) {
	if _, err := requireMember(ctx, s.Store, projectID, userID); err != nil {
		return nil, err
	}

	members, err := s.Store.Members().ListMembers(ctx, projectID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list members", slog.Any("error", err))
		return nil, err
	}
	return members, nil
}

// RemoveMember drops a membership. Invitations are left alone so an
// accepted invitation stays in the project history.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, memberID, callerID string) error {
	log := slogx.FromContext(ctx)

	project, err := requireOwner(ctx, s.Store, projectID, callerID)
	if err != nil {
		return err
	}
	if memberID == project.OwnerID {
		return ErrCannotRemoveOwner
	}

	if err := s.Store.Members().RemoveMember(ctx, projectID, memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		log.Error("failed to remove member", slog.Any("error", err))
		return err
	}

	log.Info("member removed",
		slog.String("project_id", projectID),
		slog.String("user_id", memberID),
	)
	return nil
}

// requireMember loads the project and checks userID belongs to it.
func requireMember(ctx context.Context, st store.Store, projectID, userID string) (domain.Project, error) {
	log := slogx.FromContext(ctx)

	project, err := st.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		log.Error("failed to fetch project", slog.Any("error", err))
		return domain.Project{}, err
	}

	if _, err := st.Members().GetMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("non-member project access",
				slog.String("project_id", projectID),
				slog.String("user_id", userID),
			)
			return domain.Project{}, ErrNotProjectMember
		}
		log.Error("failed to fetch membership", slog.Any("error", err))
		return domain.Project{}, err
	}
	return project, nil
}

// requireOwner loads the project and checks userID owns it.
func requireOwner(ctx context.Context, st store.Store, projectID, userID string) (domain.Project, error) {
	project, err := st.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch project", slog.Any("error", err))
		return domain.Project{}, err
	}

	if project.OwnerID != userID {
		slogx.FromContext(ctx).Warn("owner-only action by non-owner",
			slog.String("project_id", projectID),
			slog.String("user_id", userID),
		)
		return domain.Project{}, ErrNotProjectOwner
	}
	return project, nil
}
