// Package credential holds provider API keys for the running session.
// Keys live in memory only and are never logged or persisted.
package credential

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/moe/internal/domain"
)

// Known providers.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
)

// Store is a mutex-guarded provider → API key map.
type Store struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewStore creates a store seeded with the non-empty keys in seed.
func NewStore(seed map[string]string) *Store {
	s := &Store{keys: make(map[string]string)}
	for provider, key := range seed {
		if key = strings.TrimSpace(key); key != "" {
			s.keys[provider] = key
		}
	}
	return s
}

// Get returns the key for provider, or "" when none is set.
func (s *Store) Get(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[provider]
}

// Set stores key for provider.
func (s *Store) Set(provider, key string) error {
	if !Known(provider) {
		return fmt.Errorf("unknown provider %q: %w", provider, domain.ErrInvalidRequest)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty api key: %w", domain.ErrInvalidRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[provider] = key
	return nil
}

// Clear removes the key for provider.
func (s *Store) Clear(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, provider)
}

// Configured reports whether a key is set for provider.
func (s *Store) Configured(provider string) bool {
	return s.Get(provider) != ""
}

// Status lists every known provider with whether it has a key.
func (s *Store) Status() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(providers))
	for _, p := range providers {
		out = append(out, Status{Provider: p, Configured: s.keys[p] != ""})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// Status reports whether a provider has a key, without exposing it.
type Status struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

var providers = []string{OpenAI, Anthropic}

// Known reports whether provider is supported.
func Known(provider string) bool {
	for _, p := range providers {
		if p == provider {
			return true
		}
	}
	return false
}
