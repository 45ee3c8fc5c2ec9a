package sqlite

import (
	"context"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
)

type membersRepo struct {
	q querier
}

func (r *membersRepo) AddMember(ctx context.Context, m domain.Member) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_at)
		VALUES (?, ?, ?, ?)`,
		m.ProjectID, m.UserID, string(m.Role), encodeTime(m.AddedAt),
	)
	return mapConstraint(err)
}

func (r *membersRepo) EnsureMember(ctx context.Context, m domain.Member) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, user_id) DO NOTHING`,
		m.ProjectID, m.UserID, string(m.Role), encodeTime(m.AddedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const memberSelect = `
	SELECT m.project_id, m.user_id, m.role, m.added_at, u.email, u.name
	FROM project_members m
	JOIN users u ON u.id = m.user_id`

func (r *membersRepo) GetMember(ctx context.Context, projectID, userID string) (domain.Member, error) {
	row := r.q.QueryRowContext(ctx, memberSelect+`
	WHERE m.project_id = ? AND m.user_id = ?`, projectID, userID)

	m, err := scanMember(row)
	if err != nil {
		return domain.Member{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membersRepo) ListMembers(ctx context.Context, projectID string) ([]domain.Member, error) {
	rows, err := r.q.QueryContext(ctx, memberSelect+`
	WHERE m.project_id = ?
	ORDER BY CASE m.role WHEN 'owner' THEN 0 ELSE 1 END, m.added_at, m.user_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
	return expectOne(r.q.ExecContext(ctx, `
		DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID))
}

func scanMember(row scanner) (domain.Member, error) {
	var (
		m     domain.Member
		role  string
		added string
		ts    timeScanner
	)
	if err := row.Scan(&m.ProjectID, &m.UserID, &role, &added, &m.Email, &m.Name); err != nil {
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	ts.into(&m.AddedAt, added)
	return m, ts.err
}
