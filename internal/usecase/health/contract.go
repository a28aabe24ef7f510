package health

import "context"

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// CredentialChecker reports whether a provider key is stored.
type CredentialChecker interface {
	Configured(provider string) bool
}

// ProviderChecker verifies the stored key against the provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
