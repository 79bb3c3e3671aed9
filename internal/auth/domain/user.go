package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Name         string
	Email        string  // always stored normalized, see NormalizeEmail
	PasswordHash *string // nil for federation-only accounts
	Role         Role
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate with credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Identity returns the shape handed to downstream collaborators.
func (u User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Identity is the verified caller resolved from credentials, a federated
// assertion or a session token. It never carries credential material.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// constraint agree on what "the same email" means.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
