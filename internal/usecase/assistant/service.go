// Package assistant answers chat questions grounded in the knowledge base.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/domain"
)

// Defaults for retrieval and generation.
const (
	DefaultTopK        = 5
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// Question is one chat turn.
type Question struct {
	Query   string
	Mission Mission
}

// Answer is the generated reply and the excerpts it was grounded on.
type Answer struct {
	Text    string
	Sources []Source
}

// Source identifies a retrieved chunk.
type Source struct {
	ID       string
	FileName string
	Score    float64
}

// Service orchestrates retrieval and completion.
type Service struct {
	embed       Embedder
	retriever   Retriever
	completer   domain.Completer
	topK        int
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// New creates an assistant service with the default generation settings.
func New(embed Embedder, retriever Retriever, completer domain.Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:       embed,
		retriever:   retriever,
		completer:   completer,
		topK:        DefaultTopK,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		logger:      logger,
	}
}

// WithTopK configures how many chunks are retrieved.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// WithSampling configures temperature and response length. Non-positive maxTokens keeps the default.
func (s *Service) WithSampling(temperature float64, maxTokens int) *Service {
	if temperature >= 0 {
		s.temperature = temperature
	}
	if maxTokens > 0 {
		s.maxTokens = maxTokens
	}
	return s
}

// Answer embeds the query, retrieves context and asks the completion provider.
// Every external failure is returned once; nothing is retried.
func (s *Service) Answer(ctx context.Context, q Question) (Answer, error) {
	if strings.TrimSpace(q.Query) == "" {
		return Answer{}, fmt.Errorf("query is empty: %w", domain.ErrInvalidRequest)
	}
	start := time.Now()

	emb, err := s.embed.Embed(ctx, q.Query)
	if err != nil {
		return Answer{}, fmt.Errorf("embed query: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(emb.TotalTokens)

	hits := s.retriever.Search(emb.Embedding, s.topK)

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: SystemPrompt(q.Mission, hits)},
			{Role: domain.RoleUser, Content: q.Query},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("complete: %w", err)
	}
	domain.UsageFromContext(ctx).AddCompletionTokens(res.PromptTokens + res.CompletionTokens)

	sources := make([]Source, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, Source{ID: h.ID, FileName: h.Metadata.FileName, Score: h.Score})
	}

	s.logger.Debug("answer generated",
		zap.String("mission", string(q.Mission)),
		zap.Int("context_chunks", len(hits)),
		zap.Duration("duration", time.Since(start)),
	)
	return Answer{Text: res.Text, Sources: sources}, nil
}
