package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds how often a transient storage failure is retried
// before it is surfaced to the caller.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries three times over roughly half a second.
var DefaultRetryPolicy = RetryPolicy{
	MaxTries:        3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     500 * time.Millisecond,
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

func retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, ErrUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(p.backOff()), backoff.WithMaxTries(tries))
}

func retryErr(ctx context.Context, p RetryPolicy, op func() error) error {
	_, err := retry(ctx, p, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// WithRetry decorates s so every repository call that fails with
// ErrUnavailable is retried under p. Statements inside an explicit Tx are
// not retried individually; WithTx retries the whole transaction instead.
func WithRetry(s Store, p RetryPolicy) Store {
	return &retryStore{inner: s, policy: p}
}

type retryStore struct {
	inner  Store
	policy RetryPolicy
}

func (s *retryStore) Users() Users {
	return &retryUsers{inner: s.inner.Users(), policy: s.policy}
}

func (s *retryStore) RefreshTokens() RefreshTokens {
	return &retryRefreshTokens{inner: s.inner.RefreshTokens(), policy: s.policy}
}

func (s *retryStore) Identities() Identities {
	return &retryIdentities{inner: s.inner.Identities(), policy: s.policy}
}

func (s *retryStore) ApplyMigrations() error { return s.inner.ApplyMigrations() }
func (s *retryStore) Close() error           { return s.inner.Close() }

func (s *retryStore) Ping(ctx context.Context) error {
	return retryErr(ctx, s.policy, func() error { return s.inner.Ping(ctx) })
}

func (s *retryStore) Tx(ctx context.Context) (Tx, error) {
	return retry(ctx, s.policy, func() (Tx, error) { return s.inner.Tx(ctx) })
}

func (s *retryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return retryErr(ctx, s.policy, func() error { return s.inner.WithTx(ctx, fn) })
}

type retryUsers struct {
	inner  Users
	policy RetryPolicy
}

func (r *retryUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return retry(ctx, r.policy, func() (domain.User, error) { return r.inner.GetUserByID(ctx, id) })
}

func (r *retryUsers) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return retry(ctx, r.policy, func() (domain.User, error) { return r.inner.GetUserByEmail(ctx, email) })
}

func (r *retryUsers) CreateUser(ctx context.Context, u domain.User) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.CreateUser(ctx, u) })
}

func (r *retryUsers) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.UpdatePasswordHash(ctx, userID, newHash) })
}

func (r *retryUsers) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.UpdateRole(ctx, userID, role) })
}

type retryRefreshTokens struct {
	inner  RefreshTokens
	policy RetryPolicy
}

func (r *retryRefreshTokens) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.CreateRefreshToken(ctx, t) })
}

func (r *retryRefreshTokens) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	return retry(ctx, r.policy, func() (domain.RefreshToken, error) {
		return r.inner.GetRefreshTokenByHash(ctx, hash)
	})
}

func (r *retryRefreshTokens) RevokeRefreshToken(ctx context.Context, id string, replacedBy string, at time.Time) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.RevokeRefreshToken(ctx, id, replacedBy, at) })
}

func (r *retryRefreshTokens) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.RevokeSession(ctx, sessionID, at) })
}

func (r *retryRefreshTokens) RevokeAllUserRefreshTokens(ctx context.Context, userID string, at time.Time) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.RevokeAllUserRefreshTokens(ctx, userID, at) })
}

func (r *retryRefreshTokens) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return retry(ctx, r.policy, func() (int64, error) { return r.inner.DeleteExpiredRefreshTokens(ctx, now) })
}

type retryIdentities struct {
	inner  Identities
	policy RetryPolicy
}

func (r *retryIdentities) GetIdentity(ctx context.Context, provider, subject string) (domain.FederatedIdentity, error) {
	return retry(ctx, r.policy, func() (domain.FederatedIdentity, error) {
		return r.inner.GetIdentity(ctx, provider, subject)
	})
}

func (r *retryIdentities) LinkIdentity(ctx context.Context, id domain.FederatedIdentity) error {
	return retryErr(ctx, r.policy, func() error { return r.inner.LinkIdentity(ctx, id) })
}
