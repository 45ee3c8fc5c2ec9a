package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
)

type projectsRepo struct {
	q querier
}

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.OwnerID, encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *projectsRepo) GetProjectByID(ctx context.Context, id string) (domain.Project, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, title, description, owner_id, created_at, updated_at
		FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

func (r *projectsRepo) ListProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT p.id, p.title, p.description, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE projects SET title = ?, description = ?, updated_at = ?
		WHERE id = ?`, title, description, encodeTime(at), id))
}

func (r *projectsRepo) DeleteProject(ctx context.Context, id string) error {
	return expectOne(r.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (domain.Project, error) {
	var (
		p                domain.Project
		created, updated string
		ts               timeScanner
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerID, &created, &updated); err != nil {
		return domain.Project{}, err
	}
	ts.into(&p.CreatedAt, created)
	ts.into(&p.UpdatedAt, updated)
	return p, ts.err
}
