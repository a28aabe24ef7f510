package domain

import (
	"context"
	"sync"
)

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single request.
// The handler puts a mutable pointer into the context before calling the service;
// services add to it after each provider call; the handler reads it for response headers.
// Adds may run concurrently; read the fields only after the service returns.
type TokenUsage struct {
	mu               sync.Mutex
	EmbeddingTokens  int
	CompletionTokens int
	Used             bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbeddingTokens records tokens consumed by an embedding call.
func (u *TokenUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.EmbeddingTokens += n
		u.Used = true
	}
}

// AddCompletionTokens records tokens consumed by a completion call.
func (u *TokenUsage) AddCompletionTokens(n int) {
	if u != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.CompletionTokens += n
		u.Used = true
	}
}
