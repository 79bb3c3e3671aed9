package sqlite

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

func scanUser(row interface{ Scan(dest ...any) error }) (domain.User, error) {
	var (
		u            domain.User
		passwordHash sql.NullString
		role         string
		image        sql.NullString
		createdAt    int64
		updatedAt    int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &passwordHash, &role, &image, &createdAt, &updatedAt); err != nil {
		return domain.User{}, mapError(err)
	}
	u.PasswordHash = mapNullStringPtr(passwordHash)
	u.Role = domain.Role(role)
	u.Image = mapNullString(image)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, domain.NormalizeEmail(email))
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Name,
		domain.NormalizeEmail(u.Email),
		mapOptionalString(u.PasswordHash),
		string(u.Role),
		mapStringNull(u.Image),
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	return mapError(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, toMillis(time.Now()), userID))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), toMillis(time.Now()), userID))
}
