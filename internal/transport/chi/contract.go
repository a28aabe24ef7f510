package chi

import (
	"context"

	"github.com/kailas-cloud/moe/internal/credential"
	"github.com/kailas-cloud/moe/internal/repository/knowledge"
	"github.com/kailas-cloud/moe/internal/usecase/analyze"
	"github.com/kailas-cloud/moe/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/moe/internal/usecase/health"
)

// Analyzer runs the upload flow.
type Analyzer interface {
	Analyze(ctx context.Context, up analyze.Upload) (analyze.Analysis, error)
	Stats() analyze.Stats
	ResetStats()
}

// Assistant answers chat questions.
type Assistant interface {
	Answer(ctx context.Context, q assistant.Question) (assistant.Answer, error)
}

// Knowledge is the shared chunk index.
type Knowledge interface {
	Sources() []knowledge.Source
	Count() int
	Delete(id string) error
	Clear()
}

// Credentials stores provider API keys for the session.
type Credentials interface {
	Status() []credential.Status
	Set(provider, key string) error
	Clear(provider string)
}

// KeyVerifier checks a key against its provider.
type KeyVerifier interface {
	Verify(ctx context.Context, key string) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context, deep bool) healthuc.Report
}
