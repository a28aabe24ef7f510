package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/metrics"
)

// Embedder is an embedding provider using the OpenAI API.
type Embedder struct {
	base
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// Config holds the provider settings shared by Embedder and Completer.
type Config struct {
	Keys       KeySource
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func newBase(cfg *Config) base {
	return base{keys: cfg.Keys, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient, timeout: cfg.Timeout}
}

// NewEmbedder creates an OpenAI embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		base:       newBase(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     loggerOrNop(cfg.Logger),
	}
}

// Embed implements domain.Embedder. Returns the vector and usage with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	client, err := e.client()
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	callCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := client.CreateEmbeddings(callCtx, req)
	duration := time.Since(start)

	model := string(e.model)
	if err != nil {
		mapped := classify(ctx, err, domain.ErrEmbeddingProviderError)
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, model, errorType(mapped)).Inc()
		e.logger.Debug("embedding request failed", zap.Duration("duration", duration), zap.Error(mapped))
		return domain.EmbeddingResult{}, mapped
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(providerName, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(providerName, model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
