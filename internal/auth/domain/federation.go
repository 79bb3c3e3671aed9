package domain

import "time"

// ProviderAssertion is the normalized result of a federated login, produced
// by a provider adapter after it has verified the provider's response.
type ProviderAssertion struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// FederatedIdentity links a provider account to a local user.
type FederatedIdentity struct {
	Provider  string
	Subject   string
	UserID    string
	Email     string
	CreatedAt time.Time
}
