package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// UserService covers account lookups and the administrative role changes.
type UserService struct {
	Store store.Store
}

// GetIdentity fetches the current identity for a user id.
func (s *UserService) GetIdentity(ctx context.Context, userID string) (domain.Identity, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return u.Identity(), nil
}

// GetUserByEmail fetches a user by (case-insensitive) email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// SetRole changes a user's role. Live access tokens keep the old role until
// they are renewed.
func (s *UserService) SetRole(ctx context.Context, email string, role domain.Role) (domain.Identity, error) {
	if !role.Valid() {
		return domain.Identity{}, &ValidationError{Fields: map[string]string{"role": "is invalid"}}
	}
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := s.Store.Users().UpdateRole(ctx, u.ID, role); err != nil {
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Info("user role changed",
		slog.String("user_id", u.ID),
		slog.String("from", u.Role.String()),
		slog.String("to", role.String()),
	)
	u.Role = role
	return u.Identity(), nil
}
