package gate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

// Rule requires Role for every path under Prefix.
type Rule struct {
	Prefix string
	Role   domain.Role
}

// Policy is the static path prefix to role map. Lookups pick the longest
// matching prefix; a prefix only matches on a path segment boundary, so
// "/admin" guards "/admin" and "/admin/users" but not "/administrator".
type Policy struct {
	rules []Rule
}

// NewPolicy validates rules and orders them for longest-prefix lookup.
func NewPolicy(rules ...Rule) (*Policy, error) {
	seen := make(map[string]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("gate: prefix %q must start with /", r.Prefix)
		}
		if !r.Role.Valid() {
			return nil, fmt.Errorf("gate: prefix %q: unknown role %q", r.Prefix, r.Role)
		}
		if r.Prefix != "/" {
			r.Prefix = strings.TrimSuffix(r.Prefix, "/")
		}
		if _, dup := seen[r.Prefix]; dup {
			return nil, fmt.Errorf("gate: duplicate prefix %q", r.Prefix)
		}
		seen[r.Prefix] = struct{}{}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Prefix) > len(out[j].Prefix) })
	return &Policy{rules: out}, nil
}

// ParsePolicy reads comma separated "prefix=role" pairs, e.g.
// "/dashboard=user,/admin=admin".
func ParsePolicy(s string) (*Policy, error) {
	var rules []Rule
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		prefix, role, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("gate: malformed rule %q, want prefix=role", pair)
		}
		rules = append(rules, Rule{
			Prefix: strings.TrimSpace(prefix),
			Role:   domain.Role(strings.TrimSpace(role)),
		})
	}
	return NewPolicy(rules...)
}

// Required returns the role guarding path, or false when the path is open.
func (p *Policy) Required(path string) (domain.Role, bool) {
	if p == nil {
		return "", false
	}
	for _, r := range p.rules {
		if matches(r.Prefix, path) {
			return r.Role, true
		}
	}
	return "", false
}

// Rules returns the rules longest prefix first.
func (p *Policy) Rules() []Rule {
	if p == nil {
		return nil
	}
	return append([]Rule(nil), p.rules...)
}

func matches(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
