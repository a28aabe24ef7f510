// Package analyze runs the upload flow: parse, validate, report and feed the knowledge base.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/domain/record"
	"github.com/kailas-cloud/moe/internal/metrics"
	"github.com/kailas-cloud/moe/internal/parser"
	"github.com/kailas-cloud/moe/internal/usecase/ingest"
	"github.com/kailas-cloud/moe/internal/validator"
)

// Status is the overall verdict shown for an upload.
type Status string

// Analysis verdicts.
const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Upload is a named file received from the caller.
type Upload struct {
	Name string
	Data []byte
}

// Analysis is everything the caller needs to render one upload.
type Analysis struct {
	ID         string
	Record     record.Record
	Validation validator.Result
	// Issues merges parser issues (first) with validator issues, without duplicates.
	Issues   []string
	Warnings []string
	Score    int
	Status   Status
	Report   string
	// Knowledge is nil when the file never reached ingestion.
	Knowledge *ingest.Report
	// KnowledgeError explains a failed ingestion; the analysis itself is still valid.
	KnowledgeError string
}

// Stats is the running session summary.
type Stats struct {
	DocumentsProcessed int
	LastProcessedFile  string
	ChunkCount         int
}

// Service handles file analysis.
type Service struct {
	parser   Parser
	ingester Ingester
	chunks   ChunkCounter
	logger   *zap.Logger

	mu        sync.Mutex
	processed int
	last      string
}

// New creates an analysis service. ingester may be nil to skip knowledge ingestion.
func New(p Parser, ingester Ingester, chunks ChunkCounter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{parser: p, ingester: ingester, chunks: chunks, logger: logger}
}

// Analyze parses and validates an upload, then adds its text to the knowledge base.
//
// An unsupported format returns only the error. A parse failure returns the ERROR record
// together with the error so the caller can still render it. Ingestion failures are reported
// in the analysis, except cancellation which is returned.
func (s *Service) Analyze(ctx context.Context, up Upload) (Analysis, error) {
	rec, err := s.parser.ParseBytes(up.Name, up.Data)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			metrics.FilesParsedTotal.WithLabelValues("UNKNOWN", "unsupported").Inc()
			return Analysis{}, fmt.Errorf("analyze %s: %w", up.Name, err)
		}
		metrics.FilesParsedTotal.WithLabelValues(string(record.TypeError), "error").Inc()
		s.logger.Info("file parse failed", zap.String("file", up.Name), zap.Error(err))
		return Analysis{
			ID:       uuid.NewString(),
			Record:   rec,
			Issues:   mergeIssues(rec.Issues, nil),
			Warnings: []string{},
			Status:   StatusFail,
		}, fmt.Errorf("analyze %s: %w", up.Name, err)
	}
	metrics.FilesParsedTotal.WithLabelValues(string(rec.FileType), "ok").Inc()

	res := validator.Validate(&rec)
	metrics.ValidationScore.Observe(float64(res.Score))

	a := Analysis{
		ID:         uuid.NewString(),
		Record:     rec,
		Validation: res,
		Issues:     mergeIssues(rec.Issues, res.Issues),
		Warnings:   res.Warnings,
		Score:      res.Score,
		Report:     validator.Report(&rec, res),
	}
	a.Status = verdict(a.Issues, a.Warnings)

	s.logger.Info("file analyzed",
		zap.String("file", up.Name),
		zap.String("file_type", string(rec.FileType)),
		zap.Int("score", res.Score),
		zap.String("status", string(a.Status)),
	)

	if s.ingester == nil {
		return a, nil
	}
	return a, s.ingest(ctx, up, &rec, &a)
}

func (s *Service) ingest(ctx context.Context, up Upload, rec *record.Record, a *Analysis) error {
	text, err := parser.DecodeText(up.Data)
	if err != nil {
		a.KnowledgeError = err.Error()
		return nil
	}

	report, err := s.ingester.Ingest(ctx, ingest.Document{
		FileName: up.Name,
		Text:     text,
		Extra: map[string]any{
			"file_type":    string(rec.FileType),
			"version":      rec.Version,
			"cabinet_type": rec.CabinetType,
		},
	})
	a.Knowledge = &report
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ingest %s: %w", up.Name, err)
		}
		s.logger.Warn("knowledge ingestion failed", zap.String("file", up.Name), zap.Error(err))
		a.KnowledgeError = err.Error()
		return nil
	}

	s.mu.Lock()
	s.processed++
	s.last = up.Name
	s.mu.Unlock()
	return nil
}

// Stats returns the session summary.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	st := Stats{DocumentsProcessed: s.processed, LastProcessedFile: s.last}
	s.mu.Unlock()
	if s.chunks != nil {
		st.ChunkCount = s.chunks.Count()
	}
	return st
}

// ResetStats forgets processed documents after the knowledge base is cleared.
func (s *Service) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = 0
	s.last = ""
}

func verdict(issues, warnings []string) Status {
	switch {
	case len(issues) > 0:
		return StatusFail
	case len(warnings) > 0:
		return StatusWarn
	default:
		return StatusPass
	}
}

func mergeIssues(parserIssues, validatorIssues []string) []string {
	merged := make([]string, 0, len(parserIssues)+len(validatorIssues))
	seen := make(map[string]struct{}, cap(merged))
	for _, list := range [][]string{parserIssues, validatorIssues} {
		for _, issue := range list {
			if _, dup := seen[issue]; dup {
				continue
			}
			seen[issue] = struct{}{}
			merged = append(merged, issue)
		}
	}
	return merged
}
