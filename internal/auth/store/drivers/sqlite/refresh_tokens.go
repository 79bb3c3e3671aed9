package sqlite

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
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.SessionID, toMillis(t.ExpiresAt), toMillis(t.CreatedAt))
	return mapError(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	var (
		t          domain.RefreshToken
		expiresAt  int64
		revokedAt  sql.NullInt64
		replacedBy sql.NullString
		createdAt  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, session_id, expires_at, revoked_at, replaced_by, created_at
		 FROM refresh_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.SessionID, &expiresAt, &revokedAt, &replacedBy, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, mapError(err)
	}
	t.ExpiresAt = fromMillis(expiresAt)
	t.RevokedAt = mapNullTimePtr(revokedAt)
	t.ReplacedBy = mapNullString(replacedBy)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, id string, replacedBy string, at time.Time) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?, replaced_by = ?
		 WHERE id = ? AND revoked_at IS NULL`,
		toMillis(at), mapStringNull(replacedBy), id))
}

func (r *refreshTokensRepo) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, ?), replaced_by = NULL
		 WHERE session_id = ? AND (revoked_at IS NULL OR replaced_by IS NOT NULL)`,
		toMillis(at), sessionID)
	return mapError(err)
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, ?), replaced_by = NULL
		 WHERE user_id = ? AND (revoked_at IS NULL OR replaced_by IS NOT NULL)`,
		toMillis(at), userID)
	return mapError(err)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
