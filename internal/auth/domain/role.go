package domain

import "fmt"

// Role is the authorization level carried in every token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultRole is assigned on registration and first federated login.
const DefaultRole = RoleUser

var roleRank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether r grants at least the access of required.
// Unknown roles never satisfy anything.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

func (r Role) String() string { return string(r) }

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
