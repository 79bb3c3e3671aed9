package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func registerIdentity(t *testing.T, svc *CredentialService, email string) domain.Identity {
	t.Helper()
	id, err := svc.Register(context.Background(), RegisterInput{Name: "Alice", Email: email, Password: "secret1"})
	require.NoError(t, err)
	return id
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	c := newClock()
	svc := newTokenService(t, newStore(t), c)
	id := domain.Identity{ID: "user-1", Name: "A", Email: "a@x.com", Role: domain.RoleAdmin}

	token, err := svc.IssueAccessToken(id, "sid-1")
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, id.ID, claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "sid-1", claims.SID)

	c.Advance(15 * time.Minute)
	_, err = svc.VerifyAccess(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.True(t, jwtx.Renewable(err))

	_, err = svc.VerifySession(token)
	require.Error(t, err, "access tokens are not session tokens")
}

func TestTokenService_SessionToken(t *testing.T) {
	t.Parallel()

	c := newClock()
	svc := newTokenService(t, newStore(t), c)
	id := domain.Identity{ID: "user-1", Role: domain.RoleUser}

	token, exp, err := svc.IssueSessionToken(id)
	require.NoError(t, err)
	require.WithinDuration(t, c.Now().Add(svc.SessionTTL), exp, time.Second)

	claims, err := svc.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, "user", claims.Role)

	_, err = svc.VerifyAccess(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestTokenService_Renew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rotates and keeps identity", func(t *testing.T) {
		st := newStore(t)
		c := newClock()
		svc := newTokenService(t, st, c)
		id := registerIdentity(t, &CredentialService{Store: st}, "a@x.com")

		pair, err := svc.IssuePair(ctx, id)
		require.NoError(t, err)

		c.Advance(20 * time.Minute)
		_, err = svc.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrExpired)

		renewed, err := svc.Renew(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, renewed.RefreshToken)
		require.NotEqual(t, pair.RefreshToken, renewed.RefreshToken)

		claims, err := svc.VerifyAccess(renewed.AccessToken)
		require.NoError(t, err)
		require.Equal(t, id.ID, claims.Subject)
		require.Equal(t, string(id.Role), claims.Role)

		old, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(pair.RefreshToken))
		require.NoError(t, err)
		require.True(t, old.Revoked())
		require.NotEmpty(t, old.ReplacedBy)
	})

	t.Run("replay within grace is honoured without rotation", func(t *testing.T) {
		st := newStore(t)
		c := newClock()
		svc := newTokenService(t, st, c)
		id := registerIdentity(t, &CredentialService{Store: st}, "b@x.com")

		pair, err := svc.IssuePair(ctx, id)
		require.NoError(t, err)
		first, err := svc.Renew(ctx, pair.RefreshToken)
		require.NoError(t, err)

		c.Advance(2 * time.Second)
		second, err := svc.Renew(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Empty(t, second.RefreshToken)
		require.NotEmpty(t, second.AccessToken)

		_, err = svc.Renew(ctx, first.RefreshToken)
		require.NoError(t, err, "the winner's token is still live")
	})

	t.Run("replay within grace after logout is refused", func(t *testing.T) {
		for name, logout := range map[string]func(svc *TokenService, id domain.Identity, live string) error{
			"revoke":     func(svc *TokenService, _ domain.Identity, live string) error { return svc.Revoke(ctx, live) },
			"revoke all": func(svc *TokenService, id domain.Identity, _ string) error { return svc.RevokeAll(ctx, id.ID) },
		} {
			t.Run(name, func(t *testing.T) {
				st := newStore(t)
				c := newClock()
				svc := newTokenService(t, st, c)
				id := registerIdentity(t, &CredentialService{Store: st}, "logout@x.com")

				pair, err := svc.IssuePair(ctx, id)
				require.NoError(t, err)
				renewed, err := svc.Renew(ctx, pair.RefreshToken)
				require.NoError(t, err)
				require.NoError(t, logout(svc, id, renewed.RefreshToken))

				c.Advance(time.Second)
				replay, err := svc.Renew(ctx, pair.RefreshToken)
				require.ErrorIs(t, err, ErrInvalidRefresh)
				require.Nil(t, replay)

				_, err = svc.Renew(ctx, renewed.RefreshToken)
				require.ErrorIs(t, err, ErrInvalidRefresh)
			})
		}
	})

	t.Run("replay after grace revokes the session", func(t *testing.T) {
		st := newStore(t)
		c := newClock()
		svc := newTokenService(t, st, c)
		id := registerIdentity(t, &CredentialService{Store: st}, "c@x.com")

		pair, err := svc.IssuePair(ctx, id)
		require.NoError(t, err)
		rotated, err := svc.Renew(ctx, pair.RefreshToken)
		require.NoError(t, err)

		c.Advance(time.Minute)
		_, err = svc.Renew(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrRefreshReuse)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		_, err = svc.Renew(ctx, rotated.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh, "whole family is revoked")
	})

	t.Run("rotation disabled reuses the refresh token", func(t *testing.T) {
		st := newStore(t)
		c := newClock()
		svc := newTokenService(t, st, c)
		svc.Rotate = false
		id := registerIdentity(t, &CredentialService{Store: st}, "d@x.com")

		pair, err := svc.IssuePair(ctx, id)
		require.NoError(t, err)
		for range 3 {
			renewed, err := svc.Renew(ctx, pair.RefreshToken)
			require.NoError(t, err)
			require.Empty(t, renewed.RefreshToken)
			require.WithinDuration(t, pair.RefreshExpiresAt, renewed.RefreshExpiresAt, time.Millisecond)
		}
	})

	t.Run("role change applies at renewal", func(t *testing.T) {
		st := newStore(t)
		c := newClock()
		svc := newTokenService(t, st, c)
		id := registerIdentity(t, &CredentialService{Store: st}, "e@x.com")

		pair, err := svc.IssuePair(ctx, id)
		require.NoError(t, err)
		_, err = (&UserService{Store: st}).SetRole(ctx, "e@x.com", domain.RoleAdmin)
		require.NoError(t, err)

		renewed, err := svc.Renew(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, renewed.Identity.Role)
		claims, err := svc.VerifyAccess(renewed.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "admin", claims.Role)
	})

	t.Run("expired unknown and empty tokens", func(t *testing.T) {
		st := newStore(t)
		c := newClock()
		svc := newTokenService(t, st, c)
		id := registerIdentity(t, &CredentialService{Store: st}, "f@x.com")

		pair, err := svc.IssuePair(ctx, id)
		require.NoError(t, err)

		_, err = svc.Renew(ctx, "")
		require.ErrorIs(t, err, ErrInvalidRefresh)
		_, err = svc.Renew(ctx, "not-a-real-token")
		require.ErrorIs(t, err, ErrInvalidRefresh)

		c.Advance(svc.RefreshTTL)
		_, err = svc.Renew(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestTokenService_Revoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newStore(t)
	svc := newTokenService(t, st, newClock())
	id := registerIdentity(t, &CredentialService{Store: st}, "g@x.com")

	a, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)
	b, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, a.RefreshToken))
	require.NoError(t, svc.Revoke(ctx, a.RefreshToken), "idempotent")
	require.NoError(t, svc.Revoke(ctx, "unknown"))

	_, err = svc.Renew(ctx, a.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, err = svc.Renew(ctx, b.RefreshToken)
	require.NoError(t, err, "other sessions survive")

	require.NoError(t, svc.RevokeAll(ctx, id.ID))
	_, err = svc.Renew(ctx, b.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newStore(t)
	c := newClock()
	svc := newTokenService(t, st, c)
	id := registerIdentity(t, &CredentialService{Store: st}, "h@x.com")

	c.Advance(-svc.RefreshTTL - time.Hour)
	_, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)

	hk := NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, hk.Interval)
	require.EqualValues(t, 1, hk.Cleanup(ctx))
	require.EqualValues(t, 0, hk.Cleanup(ctx))
}
