package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. The knowledge base keeps working in memory.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates that no credential is stored for a provider.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache     CachePinger
	creds     CredentialChecker
	providers []string
	verifier  ProviderChecker
}

// New creates a Service. cache is nil when the embedding cache is disabled.
// providers lists the credentials the configured pipeline needs.
func New(cache CachePinger, creds CredentialChecker, providers ...string) *Service {
	return &Service{cache: cache, creds: creds, providers: providers}
}

// WithVerifier enables the live provider check used by deep probes.
func (s *Service) WithVerifier(v ProviderChecker) *Service {
	s.verifier = v
	return s
}

// Check runs health checks. deep additionally calls the provider with the stored key.
func (s *Service) Check(ctx context.Context, deep bool) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	for _, p := range s.providers {
		if s.creds != nil && s.creds.Configured(p) {
			checks["credential:"+p] = CheckOK
		} else {
			checks["credential:"+p] = CheckMissing
		}
	}

	if deep && s.verifier != nil {
		if err := s.verifier.HealthCheck(ctx); err != nil {
			checks["provider"] = CheckError
		} else {
			checks["provider"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
