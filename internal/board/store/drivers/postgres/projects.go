package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/jackc/pgx/v5"
)

type projectsRepo struct {
	q querier
}

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO projects (id, title, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Title, p.Description, p.OwnerID, p.CreatedAt, p.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *projectsRepo) GetProjectByID(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx, `
		SELECT id, title, description, owner_id, created_at, updated_at
		FROM projects WHERE id = $1`, id))
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

func (r *projectsRepo) ListProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.title, p.description, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *projectsRepo) UpdateProject(ctx context.Context, id, title, description string, at time.Time) error {
	return expectOne(r.q.Exec(ctx, `
		UPDATE projects SET title = $1, description = $2, updated_at = $3
		WHERE id = $4`, title, description, at, id))
}

func (r *projectsRepo) DeleteProject(ctx context.Context, id string) error {
	return expectOne(r.q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id))
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Project{}, err
	}
	utc(&p.CreatedAt)
	utc(&p.UpdatedAt)
	return p, nil
}
