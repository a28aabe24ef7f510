package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/metrics"
)

// RateLimitedEmbedder caps the request rate to the embedding provider.
// Concurrent ingestion workers share one limiter.
type RateLimitedEmbedder struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder allows rps requests per second with the given burst.
func NewRateLimitedEmbedder(inner domain.Embedder, rps float64, burst int) *RateLimitedEmbedder {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Embed waits for a token, then delegates. A cancelled wait returns the context error.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("rate limit wait: %w", ctxErr)
		}
		// Wait fails early when the deadline would pass before a token is available.
		return domain.EmbeddingResult{}, fmt.Errorf("rate limit wait: %w", domain.ErrTimeout)
	}
	metrics.EmbeddingRateLimitWaitSeconds.Observe(time.Since(start).Seconds())

	return r.inner.Embed(ctx, text) //nolint:wrapcheck // transparent decorator
}
