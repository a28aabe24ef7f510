package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI API.
type Completer struct {
	base
	model  string
	logger *zap.Logger
}

// NewCompleter creates an OpenAI chat completion provider.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{base: newBase(cfg), model: cfg.Model, logger: loggerOrNop(cfg.Logger)}
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	client, err := c.client()
	if err != nil {
		return domain.CompletionResult{}, err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		return domain.CompletionResult{}, classify(ctx, err, domain.ErrCompletionProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(providerName, c.model).Observe(duration.Seconds())
	metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if reason := resp.Choices[0].FinishReason; reason == openai.FinishReasonLength {
		c.logger.Debug("completion truncated at max tokens", zap.Int("max_tokens", req.MaxTokens))
	}

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
