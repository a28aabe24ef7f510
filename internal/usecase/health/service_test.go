package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

type mockCreds map[string]bool

func (m mockCreds) Configured(p string) bool { return m[p] }

type mockProviderChecker struct {
	err   error
	calls int
}

func (m *mockProviderChecker) HealthCheck(_ context.Context) error {
	m.calls++
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockCachePinger{}, mockCreds{"openai": true}, "openai")
	r := svc.Check(context.Background(), false)

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
	if r.Checks["credential:openai"] != CheckOK {
		t.Errorf("expected credential %q, got %q", CheckOK, r.Checks["credential:openai"])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockCachePinger{err: errors.New("conn refused")}, mockCreds{"openai": true}, "openai")
	r := svc.Check(context.Background(), false)

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_MissingCredential(t *testing.T) {
	svc := New(nil, mockCreds{"openai": true}, "openai", "anthropic")
	r := svc.Check(context.Background(), false)

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["credential:anthropic"] != CheckMissing {
		t.Errorf("expected anthropic %q, got %q", CheckMissing, r.Checks["credential:anthropic"])
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check should be absent when the cache is disabled")
	}
}

func TestCheck_DeepUsesVerifier(t *testing.T) {
	v := &mockProviderChecker{err: errors.New("401")}
	svc := New(nil, mockCreds{"openai": true}, "openai").WithVerifier(v)

	if r := svc.Check(context.Background(), false); r.Status != Healthy || v.calls != 0 {
		t.Errorf("shallow check must not call the provider: status=%s calls=%d", r.Status, v.calls)
	}

	r := svc.Check(context.Background(), true)
	if v.calls != 1 {
		t.Errorf("expected one provider call, got %d", v.calls)
	}
	if r.Status != Degraded || r.Checks["provider"] != CheckError {
		t.Errorf("expected degraded provider, got %+v", r)
	}
}

func TestCheck_NothingConfigured(t *testing.T) {
	r := New(nil, nil).Check(context.Background(), true)
	if r.Status != Healthy || len(r.Checks) != 0 {
		t.Errorf("expected healthy with no checks, got %+v", r)
	}
}
