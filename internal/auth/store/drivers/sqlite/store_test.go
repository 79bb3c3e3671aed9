package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestFileDSN_PragmasOnEveryConnection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := NewStore(FileDSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	// Hold two connections at once so the pool cannot hand back the same one.
	for i := range 2 {
		conn, err := st.db.Conn(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })

		var fk, busy int
		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&busy))
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
		require.Equal(t, 1, fk, "conn %d", i)
		require.Equal(t, 5000, busy, "conn %d", i)
		require.Equal(t, "wal", mode, "conn %d", i)
	}

	err = st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    "no-such-user",
		TokenHash: "orphan",
		SessionID: "s",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.Error(t, err, "foreign keys are enforced")
}

func seedUser(t *testing.T, st *Store, email string) domain.User {
	t.Helper()
	hash := "argon2id$dummy"
	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Alice",
		Email:        email,
		PasswordHash: &hash,
		Role:         domain.RoleUser,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create and lookup is case-insensitive", func(t *testing.T) {
		st := newTestStore(t)
		u := seedUser(t, st, "Alice@Example.com")

		got, err := st.Users().GetUserByEmail(ctx, "ALICE@example.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, "alice@example.com", got.Email)
		require.Equal(t, domain.RoleUser, got.Role)
		require.True(t, got.HasPassword())
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		st := newTestStore(t)
		seedUser(t, st, "bob@example.com")

		err := st.Users().CreateUser(ctx, domain.User{
			ID:    idx.New().String(),
			Name:  "Bob again",
			Email: "BOB@example.com",
			Role:  domain.RoleUser,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("concurrent duplicates admit exactly one", func(t *testing.T) {
		st := newTestStore(t)

		var (
			wg   sync.WaitGroup
			errs = make([]error, 8)
		)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = st.Users().CreateUser(ctx, domain.User{
					ID:    idx.New().String(),
					Name:  "Racer",
					Email: "race@example.com",
					Role:  domain.RoleUser,
				})
			}()
		}
		wg.Wait()

		created := 0
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			require.ErrorIs(t, err, store.ErrAlreadyExists)
		}
		require.Equal(t, 1, created)
	})

	t.Run("federation-only user has no hash", func(t *testing.T) {
		st := newTestStore(t)
		id := idx.New().String()
		require.NoError(t, st.Users().CreateUser(ctx, domain.User{
			ID:    id,
			Name:  "Fed",
			Email: "fed@example.com",
			Role:  domain.RoleUser,
			Image: "https://example.com/a.png",
		}))

		got, err := st.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Nil(t, got.PasswordHash)
		require.False(t, got.HasPassword())
		require.Equal(t, "https://example.com/a.png", got.Image)
	})

	t.Run("schema defaults role to user", func(t *testing.T) {
		st := newTestStore(t)
		_, err := st.db.ExecContext(ctx,
			`INSERT INTO users (id, name, email, created_at, updated_at) VALUES ('x', 'X', 'x@example.com', 0, 0)`)
		require.NoError(t, err)

		got, err := st.Users().GetUserByID(ctx, "x")
		require.NoError(t, err)
		require.Equal(t, domain.RoleUser, got.Role)
	})

	t.Run("update role and password", func(t *testing.T) {
		st := newTestStore(t)
		u := seedUser(t, st, "carol@example.com")

		require.NoError(t, st.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin))
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)
		require.Equal(t, "new-hash", *got.PasswordHash)

		require.ErrorIs(t, st.Users().UpdateRole(ctx, "missing", domain.RoleAdmin), store.ErrNotFound)
	})

	t.Run("missing user", func(t *testing.T) {
		st := newTestStore(t)
		_, err := st.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRefreshTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newToken := func(userID, sessionID, hash string, expires time.Time) domain.RefreshToken {
		return domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    userID,
			TokenHash: hash,
			SessionID: sessionID,
			ExpiresAt: expires,
		}
	}

	t.Run("create, lookup, revoke once", func(t *testing.T) {
		st := newTestStore(t)
		u := seedUser(t, st, "rt@example.com")
		rt := newToken(u.ID, "sid-1", "hash-1", now.Add(time.Hour))
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, rt))

		got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.Equal(t, rt.ID, got.ID)
		require.Equal(t, now.Add(time.Hour), got.ExpiresAt)
		require.False(t, got.Revoked())

		require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, rt.ID, "next", now))
		require.ErrorIs(t, st.RefreshTokens().RevokeRefreshToken(ctx, rt.ID, "again", now), store.ErrNotFound)

		got, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, got.Revoked())
		require.Equal(t, "next", got.ReplacedBy)
		require.Equal(t, now, *got.RevokedAt)
	})

	t.Run("revoke session and user", func(t *testing.T) {
		st := newTestStore(t)
		u := seedUser(t, st, "sess@example.com")
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, newToken(u.ID, "a", "h-a1", now.Add(time.Hour))))
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, newToken(u.ID, "a", "h-a2", now.Add(time.Hour))))
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, newToken(u.ID, "b", "h-b1", now.Add(time.Hour))))

		require.NoError(t, st.RefreshTokens().RevokeSession(ctx, "a", now))
		for hash, revoked := range map[string]bool{"h-a1": true, "h-a2": true, "h-b1": false} {
			got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
			require.NoError(t, err)
			require.Equal(t, revoked, got.Revoked(), hash)
		}

		require.NoError(t, st.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID, now))
		got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "h-b1")
		require.NoError(t, err)
		require.True(t, got.Revoked())
	})

	t.Run("revoke session detaches rotated tokens", func(t *testing.T) {
		st := newTestStore(t)
		u := seedUser(t, st, "rotated@example.com")
		first := newToken(u.ID, "s", "h-1", now.Add(time.Hour))
		second := newToken(u.ID, "s", "h-2", now.Add(time.Hour))
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, first))
		require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, first.ID, second.ID, now))
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, second))

		later := now.Add(time.Second)
		require.NoError(t, st.RefreshTokens().RevokeSession(ctx, "s", later))

		got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "h-1")
		require.NoError(t, err)
		require.Empty(t, got.ReplacedBy)
		require.Equal(t, now, *got.RevokedAt, "original revocation time is kept")

		got, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "h-2")
		require.NoError(t, err)
		require.Equal(t, later, *got.RevokedAt)
	})

	t.Run("housekeeping removes expired", func(t *testing.T) {
		st := newTestStore(t)
		u := seedUser(t, st, "hk@example.com")
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, newToken(u.ID, "s", "old", now.Add(-time.Minute))))
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, newToken(u.ID, "s", "new", now.Add(time.Hour))))

		n, err := st.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "old")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestIdentities(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	u := seedUser(t, st, "link@example.com")

	link := domain.FederatedIdentity{Provider: "google", Subject: "1234", UserID: u.ID, Email: "Link@Example.com"}
	require.NoError(t, st.Identities().LinkIdentity(ctx, link))
	require.ErrorIs(t, st.Identities().LinkIdentity(ctx, link), store.ErrAlreadyExists)

	got, err := st.Identities().GetIdentity(ctx, "google", "1234")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)
	require.Equal(t, "link@example.com", got.Email)

	_, err = st.Identities().GetIdentity(ctx, "google", "other")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		st := newTestStore(t)
		sentinel := context.Canceled
		err := st.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
				ID: "tx-user", Name: "Tx", Email: "tx@example.com", Role: domain.RoleUser,
			}))
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		_, err = st.Users().GetUserByID(ctx, "tx-user")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commit on success", func(t *testing.T) {
		st := newTestStore(t)
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{
				ID: "tx-user", Name: "Tx", Email: "tx@example.com", Role: domain.RoleUser,
			})
		})
		require.NoError(t, err)

		_, err = st.Users().GetUserByID(ctx, "tx-user")
		require.NoError(t, err)
	})

	t.Run("nested transactions are refused", func(t *testing.T) {
		st := newTestStore(t)
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}
