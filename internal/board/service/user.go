package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

// Me returns the account behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, err
	}
	return user, nil
}
