package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// FederationService turns a verified provider assertion into a local
// identity, provisioning the account on first sight.
type FederationService struct {
	Store store.Store
}

// Resolve maps an assertion onto a User:
//  1. a known (provider, subject) link wins, even if the provider email changed;
//  2. otherwise an account with the same verified email is linked;
//  3. otherwise a federation-only account is provisioned with the default role.
//
// Role and password hash of an existing account are never modified.
func (s *FederationService) Resolve(ctx context.Context, a domain.ProviderAssertion) (domain.Identity, error) {
	a.Email = domain.NormalizeEmail(a.Email)
	if a.Provider == "" || a.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: incomplete provider assertion", ErrAuthentication)
	}
	if a.Email == "" || !a.EmailVerified {
		slogx.FromContext(ctx).Info("federated login rejected",
			slog.String("provider", a.Provider),
			slog.String("reason", "email_not_verified"),
		)
		return domain.Identity{}, fmt.Errorf("%w: provider email not verified", ErrAuthentication)
	}

	var (
		id  domain.Identity
		err error
	)
	// A concurrent first login for the same account loses on a unique
	// constraint; the second pass then finds the winner's rows.
	for range 2 {
		id, err = s.resolveOnce(ctx, a)
		if !errors.Is(err, store.ErrAlreadyExists) {
			break
		}
	}
	return id, err
}

func (s *FederationService) resolveOnce(ctx context.Context, a domain.ProviderAssertion) (domain.Identity, error) {
	l := slogx.FromContext(ctx)
	var u domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		link, err := tx.Identities().GetIdentity(ctx, a.Provider, a.Subject)
		switch {
		case err == nil:
			u, err = tx.Users().GetUserByID(ctx, link.UserID)
			return err
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		now := time.Now().UTC()
		u, err = tx.Users().GetUserByEmail(ctx, a.Email)
		switch {
		case err == nil:
			l.Info("linking federated identity to existing account",
				slog.String("provider", a.Provider),
				slog.String("user_id", u.ID),
			)
		case errors.Is(err, store.ErrNotFound):
			u = domain.User{
				ID:        idx.New().String(),
				Name:      displayName(a),
				Email:     a.Email,
				Role:      domain.DefaultRole,
				Image:     a.Picture,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				return err
			}
			l.Info("provisioned federated account",
				slog.String("provider", a.Provider),
				slog.String("user_id", u.ID),
			)
		default:
			return err
		}

		return tx.Identities().LinkIdentity(ctx, domain.FederatedIdentity{
			Provider:  a.Provider,
			Subject:   a.Subject,
			UserID:    u.ID,
			Email:     a.Email,
			CreatedAt: now,
		})
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return u.Identity(), nil
}

func displayName(a domain.ProviderAssertion) string {
	if name := strings.TrimSpace(stripControl(a.Name)); name != "" {
		return name
	}
	local, _, _ := strings.Cut(a.Email, "@")
	return local
}

// stripControl drops characters a registration would reject; provider
// names are taken as given otherwise.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
}
