package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/moe/internal/domain"
)

const providerName = "openai"

// KeySource resolves the API key at call time so keys can change during a session.
type KeySource interface {
	Get(provider string) string
}

// base holds what the embedder and completer share: key lookup, endpoint and per-call timeout.
type base struct {
	keys       KeySource
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// client builds an API client for the current key. Fails fast without a key.
func (b *base) client() (*openai.Client, error) {
	key := b.keys.Get(providerName)
	if key == "" {
		return nil, fmt.Errorf("openai api key not configured: %w", domain.ErrMissingCredential)
	}
	return b.clientWithKey(key), nil
}

func (b *base) clientWithKey(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	if b.baseURL != "" {
		cfg.BaseURL = b.baseURL
	}
	if b.httpClient != nil {
		cfg.HTTPClient = b.httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// classify maps a failed call to a domain error. Deadlines become ErrTimeout,
// caller cancellation passes through, everything else is a provider error of kind.
func classify(ctx context.Context, err, kind error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("openai request: %w", domain.ErrTimeout)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("openai request: %w", ctxErr)
	}
	return parseAPIError(err, kind)
}

// parseAPIError extracts a human-readable message from the API response.
func parseAPIError(err, kind error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(kind, providerName, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractMessage(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return domain.NewProviderError(kind, providerName, reqErr.HTTPStatusCode, msg)
	}

	return domain.NewProviderError(kind, providerName, 0, err.Error())
}

// extractMessage reads "detail" or "error.message" from an error body of an OpenAI-compatible API.
func extractMessage(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}

// Verifier checks API keys against the models endpoint.
type Verifier struct {
	base
}

// NewVerifier creates a key verifier. keys may be nil when only Verify is used.
func NewVerifier(baseURL string, keys KeySource, timeout time.Duration) *Verifier {
	return &Verifier{base: base{keys: keys, baseURL: baseURL, timeout: timeout}}
}

// Verify reports whether key is accepted by the API.
func (v *Verifier) Verify(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("empty api key: %w", domain.ErrMissingCredential)
	}
	callCtx, cancel := v.withTimeout(ctx)
	defer cancel()

	if _, err := v.clientWithKey(key).ListModels(callCtx); err != nil {
		return classify(ctx, err, domain.ErrCompletionProviderError)
	}
	return nil
}

// HealthCheck verifies the currently stored key via ListModels (free endpoint).
func (v *Verifier) HealthCheck(ctx context.Context) error {
	if v.keys == nil {
		return fmt.Errorf("no key source: %w", domain.ErrMissingCredential)
	}
	return v.Verify(ctx, v.keys.Get(providerName))
}
