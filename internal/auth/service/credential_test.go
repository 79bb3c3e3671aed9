package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates user with default role", func(t *testing.T) {
		st := newStore(t)
		svc := &CredentialService{Store: st}

		id, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)
		require.NotEmpty(t, id.ID)
		require.Equal(t, "A", id.Name)
		require.Equal(t, "a@x.com", id.Email)
		require.Equal(t, domain.RoleUser, id.Role)

		u, err := st.Users().GetUserByID(ctx, id.ID)
		require.NoError(t, err)
		require.True(t, u.HasPassword())
		require.NotEqual(t, "secret1", *u.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("secret1", *u.PasswordHash))
	})

	t.Run("duplicate email is a conflict regardless of case", func(t *testing.T) {
		svc := &CredentialService{Store: newStore(t)}

		_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterInput{Name: "A2", Email: "  A@X.com", Password: "other"})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("missing and malformed fields", func(t *testing.T) {
		svc := &CredentialService{Store: newStore(t)}

		_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email"})
		require.ErrorIs(t, err, ErrValidation)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		require.Equal(t, "is required", verr.Fields["name"])
		require.Equal(t, "is required", verr.Fields["password"])
		require.Equal(t, "must be a valid email address", verr.Fields["email"])

		_, err = svc.Register(ctx, RegisterInput{Name: "   ", Email: "a@x.com", Password: "p"})
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "name")
	})

	t.Run("control characters in the name are rejected", func(t *testing.T) {
		svc := &CredentialService{Store: newStore(t)}

		for _, name := range []string{"A\r\nX-Auth-User-Role: admin", "Tab\tbed", "Nul\x00"} {
			_, err := svc.Register(ctx, RegisterInput{Name: name, Email: "ctl@x.com", Password: "p"})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "%q", name)
			require.Equal(t, "must not contain control characters", verr.Fields["name"])
		}

		id, err := svc.Register(ctx, RegisterInput{Name: "Zoë Ångström", Email: "ctl@x.com", Password: "p"})
		require.NoError(t, err)
		require.Equal(t, "Zoë Ångström", id.Name)
	})

	t.Run("concurrent duplicates create exactly one user", func(t *testing.T) {
		svc := &CredentialService{Store: newStore(t)}

		const n = 3
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = svc.Register(ctx, RegisterInput{Name: "A", Email: "race@x.com", Password: "secret1"})
			}()
		}
		wg.Wait()

		var created int
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			require.ErrorIs(t, err, ErrEmailTaken)
		}
		require.Equal(t, 1, created)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newStore(t)
	svc := &CredentialService{Store: st}
	registered, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		id, err := svc.Authenticate(ctx, "ALICE@x.com ", "secret1")
		require.NoError(t, err)
		require.Equal(t, registered, id)
	})

	t.Run("failures are indistinguishable to callers", func(t *testing.T) {
		_, wrong := svc.Authenticate(ctx, "alice@x.com", "nope")
		_, missing := svc.Authenticate(ctx, "nobody@x.com", "secret1")

		require.ErrorIs(t, wrong, ErrAuthentication)
		require.ErrorIs(t, missing, ErrAuthentication)
		require.ErrorIs(t, wrong, ErrInvalidCredential)
		require.ErrorIs(t, missing, ErrUserNotFound)
	})

	t.Run("federation-only account cannot use credentials", func(t *testing.T) {
		u := domain.User{ID: idx.New().String(), Name: "Fed", Email: "fed@x.com", Role: domain.RoleUser}
		require.NoError(t, st.Users().CreateUser(ctx, u))

		_, err := svc.Authenticate(ctx, "fed@x.com", "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Authenticate(ctx, "fed@x.com", "anything")
		require.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("legacy bcrypt hash is upgraded", func(t *testing.T) {
		legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), 10)
		require.NoError(t, err)
		hash := string(legacy)
		u := domain.User{ID: idx.New().String(), Name: "Old", Email: "old@x.com", PasswordHash: &hash, Role: domain.RoleAdmin}
		require.NoError(t, st.Users().CreateUser(ctx, u))

		id, err := svc.Authenticate(ctx, "old@x.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, id.Role)

		stored, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, cryptox.NeedsRehash(*stored.PasswordHash))

		_, err = svc.Authenticate(ctx, "old@x.com", "secret1")
		require.NoError(t, err, "upgraded hash still verifies")
	})
}
