package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/pkg/cryptox"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
	"github.com/aussiebroadwan/agileboard/pkg/jwtx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

type AuthService struct {
	Store      store.Store
	Hasher     cryptox.PasswordHasher
	Signer     *jwtx.Signer
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        Clock

	dummyOnce sync.Once
	dummyHash string
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Register creates an account. Emails are unique after normalisation.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	in := registerInput{
		Email:    domain.NormalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Password: password,
	}
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := s.Now.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("registration with taken email")
			return domain.User{}, ErrEmailTaken
		}
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks the password and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same argon2 time as a real check.
			_ = s.Hasher.Verify(password, s.dummy())
			log.Warn("login for unknown email")
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, domain.TokenPair{}, err
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash unreadable",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		} else {
			log.Warn("login with wrong password", slog.String("user_id", user.ID))
		}
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := s.issue(ctx, tx, user, s.Now.now())
		pair = p
		return err
	})
	if err != nil {
		log.Error("failed to issue tokens", slog.Any("error", err))
		return domain.User{}, domain.TokenPair{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	if refreshToken == "" {
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	hash := cryptox.FingerprintToken(refreshToken)
	now := s.Now.now()

	var pair domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if rt.Revoked || !now.Before(rt.ExpiresAt) {
			return ErrInvalidRefresh
		}

		// Concurrent refreshes race here; only one revoke succeeds.
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		pair, err = s.issue(ctx, tx, user, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			log.Warn("refresh rejected")
		} else {
			log.Error("failed to rotate refresh token", slog.Any("error", err))
		}
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// Logout revokes the refresh token. Unknown or already revoked tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Error("failed to revoke refresh token", slog.Any("error", err))
		return err
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, tx store.Tx, user domain.User, now time.Time) (domain.TokenPair, error) {
	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	claims := jwtx.NewAccessClaims(user.ID, user.Email, user.Name, accessTTL, s.Issuer, s.Audience, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, err
	}
	rt := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(refreshTTL),
		CreatedAt: now,
	}
	if err := tx.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshToken:     opaque,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("agileboard-dummy-password")
	})
	return s.dummyHash
}
