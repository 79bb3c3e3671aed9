package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=200,printable"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,max=1024"`
}

// CredentialService owns registration and password authentication.
type CredentialService struct {
	Store store.Store
}

// Register creates a password account with the default role and returns its
// identity. A duplicate email, including one lost to a concurrent insert,
// yields ErrEmailTaken.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (domain.Identity, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return domain.Identity{}, err
	}

	// Cheap early exit before paying for argon2; the unique index still
	// decides races.
	if _, err := s.Store.Users().GetUserByEmail(ctx, in.Email); err == nil {
		return domain.Identity{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.Identity{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: &hash,
		Role:         domain.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Identity{}, ErrEmailTaken
		}
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return u.Identity(), nil
}

// Authenticate verifies an email and password. Every failure wraps
// ErrAuthentication; the unknown-email path still spends one password
// verification so response timing does not reveal which accounts exist.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	in := loginInput{Email: domain.NormalizeEmail(email), Password: password}
	if err := validateStruct(in); err != nil {
		return domain.Identity{}, err
	}
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		cryptox.EqualizeTiming(password)
		l.Info("authentication failed", slog.String("reason", "user_not_found"))
		return domain.Identity{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}

	if !u.HasPassword() {
		cryptox.EqualizeTiming(password)
		l.Info("authentication failed", slog.String("reason", "no_password"), slog.String("user_id", u.ID))
		return domain.Identity{}, ErrInvalidCredential
	}

	if err := cryptox.VerifyPassword(password, *u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrInvalidHash) {
			l.Error("stored password hash is unreadable", slog.String("user_id", u.ID), slog.Any("error", err))
		} else {
			l.Info("authentication failed", slog.String("reason", "invalid_credential"), slog.String("user_id", u.ID))
		}
		return domain.Identity{}, ErrInvalidCredential
	}

	if cryptox.NeedsRehash(*u.PasswordHash) {
		s.rehash(ctx, u.ID, password)
	}

	return u.Identity(), nil
}

// rehash upgrades a legacy or outdated hash. Failure is logged and the login
// proceeds; the next login tries again.
func (s *CredentialService) rehash(ctx context.Context, userID, password string) {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to rehash password", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		l.Error("failed to store rehashed password", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("user_id", userID))
}
