package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		t.ID, t.UserID, t.TokenHash, encodeTime(t.ExpiresAt), encodeTime(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t                domain.RefreshToken
		expires, created string
		ts               timeScanner
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &expires, &t.Revoked, &created)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	ts.into(&t.ExpiresAt, expires)
	ts.into(&t.CreatedAt, created)
	return t, ts.err
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1
		WHERE token_hash = ? AND revoked = 0`, hash))
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at <= ? OR revoked = 1`, encodeTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
