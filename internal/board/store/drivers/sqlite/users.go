package sqlite

import (
	"context"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, name, password_hash, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, encodeTime(u.CreatedAt), encodeTime(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *usersRepo) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	var (
		u                domain.User
		created, updated string
		ts               timeScanner
	)
	err := r.q.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created, &updated)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	ts.into(&u.CreatedAt, created)
	ts.into(&u.UpdatedAt, updated)
	return u, ts.err
}
