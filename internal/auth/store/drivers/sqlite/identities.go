package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type identitiesRepo struct {
	db dbtx
}

func (r *identitiesRepo) GetIdentity(ctx context.Context, provider, subject string) (domain.FederatedIdentity, error) {
	var (
		id        domain.FederatedIdentity
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT provider, subject, user_id, email, created_at
		 FROM federated_identities WHERE provider = ? AND subject = ?`, provider, subject).
		Scan(&id.Provider, &id.Subject, &id.UserID, &id.Email, &createdAt)
	if err != nil {
		return domain.FederatedIdentity{}, mapError(err)
	}
	id.CreatedAt = fromMillis(createdAt)
	return id, nil
}

func (r *identitiesRepo) LinkIdentity(ctx context.Context, id domain.FederatedIdentity) error {
	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO federated_identities (provider, subject, user_id, email, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id.Provider, id.Subject, id.UserID, domain.NormalizeEmail(id.Email), toMillis(id.CreatedAt))
	return mapError(err)
}
