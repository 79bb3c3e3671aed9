package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// TokenService mints and verifies access and session tokens and owns the
// refresh token lifecycle.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SessionTTL time.Duration

	// Rotate replaces the refresh token on every renewal. A rotated token
	// replayed within ReuseGrace is treated as a concurrent renewal; after
	// that it revokes the whole session.
	Rotate     bool
	ReuseGrace time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) claims(id domain.Identity, sessionID, use string, ttl time.Duration, now time.Time) jwtx.Claims {
	return jwtx.NewClaims(jwtx.ClaimsParams{
		Subject:   id.ID,
		Role:      id.Role.String(),
		Name:      id.Name,
		Email:     id.Email,
		SessionID: sessionID,
		Use:       use,
		Issuer:    s.KeyManager.Issuer(),
		Audience:  s.KeyManager.Audience(),
		TTL:       ttl,
	}, now)
}

// IssueAccessToken signs a short-lived bearer token carrying subject and role.
func (s *TokenService) IssueAccessToken(id domain.Identity, sessionID string) (string, error) {
	return s.KeyManager.GetSigner().Sign(s.claims(id, sessionID, jwtx.UseAccess, s.AccessTTL, s.now()))
}

// IssueSessionToken signs the long-lived token sealed into a session cookie.
func (s *TokenService) IssueSessionToken(id domain.Identity) (string, time.Time, error) {
	now := s.now()
	c := s.claims(id, idx.New().String(), jwtx.UseSession, s.SessionTTL, now)
	token, err := s.KeyManager.GetSigner().Sign(c)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, c.ExpiresAt.Time, nil
}

// IssueRefreshToken persists a new opaque refresh token for the session and
// returns its plaintext. Only the fingerprint is stored.
func (s *TokenService) IssueRefreshToken(ctx context.Context, id domain.Identity, sessionID string) (string, time.Time, error) {
	opaque, rt, err := s.newRefresh(id.ID, sessionID, s.now())
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return "", time.Time{}, err
	}
	return opaque, rt.ExpiresAt, nil
}

func (s *TokenService) newRefresh(userID, sessionID string, now time.Time) (string, domain.RefreshToken, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}
	return opaque, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		SessionID: sessionID,
		ExpiresAt: now.Add(s.RefreshTTL).UTC(),
		CreatedAt: now.UTC(),
	}, nil
}

// IssuePair starts a new bearer session.
func (s *TokenService) IssuePair(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	sessionID := idx.New().String()

	refresh, refreshExp, err := s.IssueRefreshToken(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	access, err := s.IssueAccessToken(id, sessionID)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  s.AccessTTL,
		RefreshExpiresAt: refreshExp,
		Identity:         id,
	}, nil
}

// VerifyAccess checks an access token. Errors are jwtx sentinels; only
// jwtx.ErrExpired is worth a renewal.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.KeyManager.VerifierAt(jwtx.UseAccess, s.now).Verify(token)
}

// VerifySession checks a session token unsealed from a cookie.
func (s *TokenService) VerifySession(token string) (jwtx.Claims, error) {
	return s.KeyManager.VerifierAt(jwtx.UseSession, s.now).Verify(token)
}

// Renew exchanges a refresh token for a new access token. The user is
// reloaded so role changes apply. With rotation on, the pair carries a new
// refresh token; an empty RefreshToken means the caller keeps its current one.
func (s *TokenService) Renew(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	if refreshOpaque == "" {
		return nil, ErrInvalidRefresh
	}
	l := slogx.FromContext(ctx)
	now := s.now()
	fp := cryptox.FingerprintToken(refreshOpaque)

	var (
		pair   *domain.TokenPair
		reused bool
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefresh
		}
		if err != nil {
			return err
		}
		if rt.Expired(now) {
			return ErrInvalidRefresh
		}

		rotate := s.Rotate
		if rt.Revoked() {
			if !s.withinGrace(rt, now) {
				// Replay of a rotated token: assume theft and end the session.
				// The revocation must commit, so the error is raised after.
				reused = true
				return tx.RefreshTokens().RevokeSession(ctx, rt.SessionID, now)
			}
			rotate = false
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefresh
		}
		if err != nil {
			return err
		}
		id := u.Identity()

		pair = &domain.TokenPair{
			AccessExpiresIn:  s.AccessTTL,
			RefreshExpiresAt: rt.ExpiresAt,
			Identity:         id,
		}

		if rotate {
			opaque, next, err := s.newRefresh(u.ID, rt.SessionID, now)
			if err != nil {
				return err
			}
			err = tx.RefreshTokens().RevokeRefreshToken(ctx, rt.ID, next.ID, now)
			switch {
			case err == nil:
				if err := tx.RefreshTokens().CreateRefreshToken(ctx, next); err != nil {
					return err
				}
				pair.RefreshToken = opaque
				pair.RefreshExpiresAt = next.ExpiresAt
			case errors.Is(err, store.ErrNotFound):
				// Lost a rotation race with a concurrent renewal; the winner
				// carries the new refresh token.
			default:
				return err
			}
		}

		pair.AccessToken, err = s.IssueAccessToken(id, rt.SessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if reused {
		l.Warn("refresh token reuse detected, session revoked")
		return nil, ErrRefreshReuse
	}
	return pair, nil
}

func (s *TokenService) withinGrace(rt domain.RefreshToken, now time.Time) bool {
	if rt.ReplacedBy == "" || rt.RevokedAt == nil {
		return false
	}
	return now.Sub(*rt.RevokedAt) <= s.ReuseGrace
}

// Revoke ends the session the refresh token belongs to. Unknown tokens are
// ignored so logout is idempotent.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	if refreshOpaque == "" {
		return nil
	}
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshOpaque))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Store.RefreshTokens().RevokeSession(ctx, rt.SessionID, s.now()); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("session revoked", slog.String("user_id", rt.UserID))
	return nil
}

// RevokeAll ends every session of a user.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID, s.now())
}
