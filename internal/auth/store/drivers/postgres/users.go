package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, password_hash, role, image, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u            domain.User
		passwordHash sql.NullString
		role         string
		image        sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &passwordHash, &role, &image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapError(err)
	}
	if passwordHash.Valid {
		u.PasswordHash = &passwordHash.String
	}
	u.Role = domain.Role(role)
	u.Image = image.String
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, domain.NormalizeEmail(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	var hash sql.NullString
	if u.PasswordHash != nil {
		hash = sql.NullString{String: *u.PasswordHash, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, domain.NormalizeEmail(u.Email), hash, string(u.Role), nullString(u.Image), u.CreatedAt, u.UpdatedAt)
	return mapError(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, newHash, userID))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, string(role), userID))
}
