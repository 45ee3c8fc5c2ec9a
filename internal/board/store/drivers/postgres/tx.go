package postgres

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/jackc/pgx/v5"
)

var errNestedTx = errors.New("postgres: nested transactions are not supported")

type txStore struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *txStore) Commit() error { return t.tx.Commit(t.ctx) }

// Rollback ignores pgx.ErrTxClosed so it can be deferred after Commit.
func (t *txStore) Rollback() error {
	if err := t.tx.Rollback(t.ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func (t *txStore) Close() error                          { return nil }
func (t *txStore) Ping(context.Context) error            { return nil }
func (t *txStore) ApplyMigrations() error                { return nil }
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }
func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error {
	return errNestedTx
}

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.tx} }
func (t *txStore) Projects() store.Projects           { return &projectsRepo{q: t.tx} }
func (t *txStore) Members() store.Members             { return &membersRepo{q: t.tx} }
func (t *txStore) Invitations() store.Invitations     { return &invitationsRepo{q: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{q: t.tx} }
