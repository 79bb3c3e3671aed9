// Package postgres implements store.Store on PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeTooManyConnections   = "53300"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

// NewStore opens a pool for a postgres:// URL.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an existing pool.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.db.PingContext(ctx))
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return &txStore{tx: tx}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return mapError(tx.Commit())
}

func (s *Store) Users() store.Users                 { return &usersRepo{db: s.db} }
func (s *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: s.db} }
func (s *Store) Identities() store.Identities       { return &identitiesRepo{db: s.db} }

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }
func (t *txStore) Close() error    { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: t.tx} }
func (t *txStore) Identities() store.Identities       { return &identitiesRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) {
		return errors.Join(store.ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return errors.Join(store.ErrAlreadyExists, err)
		case codeSerializationFailure, codeDeadlockDetected, codeTooManyConnections,
			codeAdminShutdown, codeCannotConnectNow:
			return errors.Join(store.ErrUnavailable, err)
		}
		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return errors.Join(store.ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return errors.Join(store.ErrUnavailable, err)
	}
	return err
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
