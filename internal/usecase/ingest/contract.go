package ingest

import (
	"context"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/domain/chunk"
)

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index stores embedded chunks. AddMany returns the IDs it rejected for a dimension mismatch.
type Index interface {
	AddMany(chunks []chunk.Chunk) []string
	Count() int
	Dimensions() int
}
