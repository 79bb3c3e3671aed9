package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable marks transient failures (locked database, dropped
	// connection) that are worth retrying.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories so a Tx-scoped store can hand
// out the same repos without callers nesting transactions.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Identities() Identities

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	UpdateRole(ctx context.Context, userID string, role domain.Role) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record regardless of revocation so
	// callers can detect reuse of rotated tokens.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken marks one token revoked. replacedBy may be empty.
	// Returns ErrNotFound when the token was already revoked.
	RevokeRefreshToken(ctx context.Context, id string, replacedBy string, at time.Time) error

	// RevokeSession revokes every live token sharing a session id and
	// clears replacedBy on tokens already rotated, so none of them can be
	// redeemed again under the reuse grace.
	RevokeSession(ctx context.Context, sessionID string, at time.Time) error

	// RevokeAllUserRefreshTokens is RevokeSession across all of a user's
	// sessions.
	RevokeAllUserRefreshTokens(ctx context.Context, userID string, at time.Time) error

	// DeleteExpiredRefreshTokens is housekeeping; returns rows removed.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Identities interface {
	GetIdentity(ctx context.Context, provider, subject string) (domain.FederatedIdentity, error)

	// LinkIdentity records a provider account for a user. Linking the same
	// (provider, subject) twice yields ErrAlreadyExists.
	LinkIdentity(ctx context.Context, id domain.FederatedIdentity) error
}
