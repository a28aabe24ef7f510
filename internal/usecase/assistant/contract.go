package assistant

import (
	"context"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/domain/chunk"
)

// Embedder vectorizes the user query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever finds the chunks most similar to a query vector.
type Retriever interface {
	Search(query []float32, k int) []chunk.SearchResult
}
