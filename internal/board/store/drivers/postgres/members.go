package postgres

import (
	"context"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/jackc/pgx/v5"
)

type membersRepo struct {
	q querier
}

func (r *membersRepo) AddMember(ctx context.Context, m domain.Member) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_at)
		VALUES ($1, $2, $3, $4)`,
		m.ProjectID, m.UserID, string(m.Role), m.AddedAt,
	)
	return mapConstraint(err)
}

func (r *membersRepo) EnsureMember(ctx context.Context, m domain.Member) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO NOTHING`,
		m.ProjectID, m.UserID, string(m.Role), m.AddedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const memberSelect = `
	SELECT m.project_id, m.user_id, m.role, m.added_at, u.email, u.name
	FROM project_members m
	JOIN users u ON u.id = m.user_id`

func (r *membersRepo) GetMember(ctx context.Context, projectID, userID string) (domain.Member, error) {
	m, err := scanMember(r.q.QueryRow(ctx, memberSelect+`
	WHERE m.project_id = $1 AND m.user_id = $2`, projectID, userID))
	if err != nil {
		return domain.Member{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membersRepo) ListMembers(ctx context.Context, projectID string) ([]domain.Member, error) {
	rows, err := r.q.Query(ctx, memberSelect+`
	WHERE m.project_id = $1
	ORDER BY CASE m.role WHEN 'owner' THEN 0 ELSE 1 END, m.added_at, m.user_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membersRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	return expectOne(r.q.Exec(ctx, `
		DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID))
}

func scanMember(row pgx.Row) (domain.Member, error) {
	var (
		m    domain.Member
		role string
	)
	if err := row.Scan(&m.ProjectID, &m.UserID, &role, &m.AddedAt, &m.Email, &m.Name); err != nil {
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	utc(&m.AddedAt)
	return m, nil
}
