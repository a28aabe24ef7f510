package analyze

import (
	"context"

	"github.com/kailas-cloud/moe/internal/domain/record"
	"github.com/kailas-cloud/moe/internal/usecase/ingest"
)

// Parser extracts a record from an uploaded file.
type Parser interface {
	ParseBytes(name string, data []byte) (record.Record, error)
}

// Ingester adds document text to the knowledge base.
type Ingester interface {
	Ingest(ctx context.Context, doc ingest.Document) (ingest.Report, error)
}

// ChunkCounter reports the size of the knowledge base.
type ChunkCounter interface {
	Count() int
}
