package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, session_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.TokenHash, t.SessionID, t.ExpiresAt, t.CreatedAt)
	return mapError(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t          domain.RefreshToken
		revokedAt  sql.NullTime
		replacedBy sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, session_id, expires_at, revoked_at, replaced_by, created_at
		 FROM refresh_tokens WHERE token_hash = $1`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.SessionID, &t.ExpiresAt, &revokedAt, &replacedBy, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapError(err)
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	t.ReplacedBy = replacedBy.String
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, id string, replacedBy string, at time.Time) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $1, replaced_by = $2
		 WHERE id = $3 AND revoked_at IS NULL`,
		at, nullString(replacedBy), id))
}

func (r *refreshTokensRepo) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, $1), replaced_by = NULL
		 WHERE session_id = $2 AND (revoked_at IS NULL OR replaced_by IS NOT NULL)`,
		at, sessionID)
	return mapError(err)
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, $1), replaced_by = NULL
		 WHERE user_id = $2 AND (revoked_at IS NULL OR replaced_by IS NOT NULL)`,
		at, userID)
	return mapError(err)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
