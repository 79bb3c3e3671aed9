// Package federation adapts external identity providers to the
// ProviderAssertion consumed by service.FederationService.
package federation

import (
	"context"
	"sort"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/pkg/errors"
)

var (
	ErrUnknownProvider = errors.New("federation: unknown provider")
	ErrIDToken         = errors.New("federation: invalid id_token")
)

// Provider runs the authorization code flow against one identity provider.
type Provider interface {
	Name() string

	// AuthCodeURL is where the browser is sent to sign in.
	AuthCodeURL(state string) string

	// Exchange redeems the callback code and returns the verified assertion.
	Exchange(ctx context.Context, code string) (domain.ProviderAssertion, error)
}

// Registry looks providers up by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	if r != nil {
		if p, ok := r.providers[name]; ok {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownProvider, "provider %q", name)
}

// Names lists configured providers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
