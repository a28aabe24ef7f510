// Package anthropic adapts the Anthropic Messages API to domain.Completer.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/metrics"
)

const providerName = "anthropic"

// KeySource resolves the API key at call time.
type KeySource interface {
	Get(provider string) string
}

// Config holds the provider settings.
type Config struct {
	Keys       KeySource
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Completer is a chat completion provider using the Anthropic Messages API.
type Completer struct {
	keys       KeySource
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCompleter creates an Anthropic completion provider.
func NewCompleter(cfg *Config) *Completer {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Completer{
		keys:       cfg.Keys,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     l,
	}
}

func (c *Completer) client() (anthropic.Client, error) {
	key := strings.TrimSpace(c.keys.Get(providerName))
	if key == "" {
		return anthropic.Client{}, fmt.Errorf("anthropic api key not configured: %w", domain.ErrMissingCredential)
	}
	// Failures surface to the user once; the SDK must not retry behind our back.
	opts := []aoption.RequestOption{aoption.WithAPIKey(key), aoption.WithMaxRetries(0)}
	if c.baseURL != "" {
		opts = append(opts, aoption.WithBaseURL(c.baseURL))
	}
	if c.httpClient != nil {
		opts = append(opts, aoption.WithHTTPClient(c.httpClient))
	}
	return anthropic.NewClient(opts...), nil
}

// Complete implements domain.Completer. System messages become the system prompt.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	client, err := c.client()
	if err != nil {
		return domain.CompletionResult{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	msg, err := client.Messages.New(callCtx, params)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		return domain.CompletionResult{}, classify(ctx, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	prompt, completion := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(providerName, c.model).Observe(duration.Seconds())
	metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "prompt").Add(float64(prompt))
	metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "completion").Add(float64(completion))

	if msg.StopReason == anthropic.StopReasonMaxTokens {
		c.logger.Debug("completion truncated at max tokens", zap.Int("max_tokens", req.MaxTokens))
	}

	return domain.CompletionResult{Text: text.String(), PromptTokens: prompt, CompletionTokens: completion}, nil
}

func (c *Completer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("anthropic request: %w", domain.ErrTimeout)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("anthropic request: %w", ctxErr)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(domain.ErrCompletionProviderError, providerName, apiErr.StatusCode, apiMessage(apiErr))
	}
	return domain.NewProviderError(domain.ErrCompletionProviderError, providerName, 0, err.Error())
}

// apiMessage prefers the message field of the error body over the SDK's verbose rendering.
func apiMessage(e *anthropic.Error) string {
	raw := e.RawJSON()
	if raw != "" {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal([]byte(raw), &body) == nil && body.Error.Message != "" {
			return body.Error.Message
		}
	}
	return e.Error()
}
