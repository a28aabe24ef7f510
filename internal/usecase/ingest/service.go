// Package ingest splits document text into chunks, embeds them and stores them in the knowledge index.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/moe/internal/domain"
	dombatch "github.com/kailas-cloud/moe/internal/domain/batch"
	"github.com/kailas-cloud/moe/internal/domain/chunk"
	"github.com/kailas-cloud/moe/internal/metrics"
)

// Document is the raw text of one uploaded file.
type Document struct {
	FileName string
	Text     string
	// Extra is copied into every chunk's metadata.
	Extra map[string]any
}

// Report summarizes one ingestion. Results holds one entry per chunk in index order.
type Report struct {
	FileName    string
	TotalChunks int
	Added       int
	Failed      int
	Skipped     int
	Results     []dombatch.Result
}

// Service handles knowledge-base ingestion.
type Service struct {
	embed       Embedder
	index       Index
	chunkWords  int
	concurrency int
	logger      *zap.Logger
}

// New creates an ingest service with sequential embedding and the default chunk size.
func New(embed Embedder, index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:       embed,
		index:       index,
		chunkWords:  chunk.DefaultWords,
		concurrency: 1,
		logger:      logger,
	}
}

// WithChunkWords configures the chunk size in words.
func (s *Service) WithChunkWords(n int) *Service {
	if n > 0 {
		s.chunkWords = n
	}
	return s
}

// WithConcurrency configures how many embedding requests may be in flight at once.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Ingest chunks doc, embeds every chunk and adds the successful ones to the index.
//
// A failed chunk is logged and dropped; the rest continue. A missing credential aborts
// the whole run. On cancellation the chunks embedded so far are still stored and the
// context error is returned with the partial report.
func (s *Service) Ingest(ctx context.Context, doc Document) (Report, error) {
	texts := chunk.Split(doc.Text, s.chunkWords)
	total := len(texts)
	report := Report{FileName: doc.FileName, TotalChunks: total}
	if total == 0 {
		return report, nil
	}

	results := make([]dombatch.Result, total)
	embedded := make([]*chunk.Chunk, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, text := range texts {
		id := chunk.ID(doc.FileName, i)
		if gctx.Err() != nil {
			results[i] = dombatch.NewSkipped(id, i)
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = dombatch.NewSkipped(id, i)
				return nil
			}
			res, err := s.embed.Embed(gctx, text)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrMissingCredential):
				results[i] = dombatch.NewError(id, i, err)
				return fmt.Errorf("embed chunk %d: %w", i, err)
			case gctx.Err() != nil:
				results[i] = dombatch.NewSkipped(id, i)
				return nil
			default:
				s.logger.Warn("chunk embedding failed",
					zap.String("file", doc.FileName),
					zap.Int("chunk", i),
					zap.Error(err),
				)
				results[i] = dombatch.NewError(id, i, err)
				return nil
			}

			c, err := chunk.New(id, text, chunk.Metadata{
				FileName: doc.FileName,
				Index:    i,
				Total:    total,
				Extra:    doc.Extra,
			}, res.Embedding)
			if err != nil {
				results[i] = dombatch.NewError(id, i, err)
				return nil
			}
			embedded[i] = &c
			results[i] = dombatch.NewOK(id, i)
			return nil
		})
	}
	waitErr := g.Wait()

	added := make([]chunk.Chunk, 0, total)
	for i := range texts {
		if results[i].Status() == "" {
			results[i] = dombatch.NewSkipped(chunk.ID(doc.FileName, i), i)
		}
		if embedded[i] != nil {
			added = append(added, *embedded[i])
		}
	}

	if len(added) > 0 {
		s.rejectMismatched(doc.FileName, added, s.index.AddMany(added), results)
	}

	counts := dombatch.Count(results)
	report.Added, report.Failed, report.Skipped = counts.OK, counts.Failed, counts.Skipped
	report.Results = results

	metrics.ChunksIngestedTotal.WithLabelValues("added").Add(float64(report.Added))
	metrics.ChunksIngestedTotal.WithLabelValues("failed").Add(float64(report.Failed))
	metrics.KnowledgeChunks.Set(float64(s.index.Count()))

	s.logger.Info("document ingested",
		zap.String("file", doc.FileName),
		zap.Int("total_chunks", total),
		zap.Int("added", report.Added),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)

	if waitErr != nil {
		return report, waitErr
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingest %s: %w", doc.FileName, err)
	}
	return report, nil
}

// rejectMismatched marks chunks the index refused as failed.
func (s *Service) rejectMismatched(file string, added []chunk.Chunk, rejected []string, results []dombatch.Result) {
	if len(rejected) == 0 {
		return
	}
	byID := make(map[string]*chunk.Chunk, len(added))
	for i := range added {
		byID[added[i].ID()] = &added[i]
	}
	dims := s.index.Dimensions()
	for _, id := range rejected {
		c, ok := byID[id]
		if !ok {
			continue
		}
		i := c.Metadata().Index
		err := fmt.Errorf("embedding has %d dimensions, index holds %d: %w",
			c.Dimensions(), dims, domain.ErrEmbeddingProviderError)
		s.logger.Warn("chunk dimension mismatch", zap.String("file", file), zap.Int("chunk", i), zap.Error(err))
		results[i] = dombatch.NewError(id, i, err)
	}
}
