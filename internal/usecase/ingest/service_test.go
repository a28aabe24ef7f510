package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/moe/internal/domain"
	dombatch "github.com/kailas-cloud/moe/internal/domain/batch"
	"github.com/kailas-cloud/moe/internal/domain/chunk"
	"github.com/kailas-cloud/moe/internal/repository/knowledge"
)

// --- Mocks ---

type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]error // chunk text prefix -> error
	dims   map[string]int   // chunk text prefix -> embedding length
	hook   func(call int)
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	if m.hook != nil {
		m.hook(call)
	}
	for prefix, err := range m.failOn {
		if strings.HasPrefix(text, prefix) {
			return domain.EmbeddingResult{}, err
		}
	}
	n := 3
	for prefix, d := range m.dims {
		if strings.HasPrefix(text, prefix) {
			n = d
		}
	}
	vec := make([]float32, n)
	vec[0] = 1
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// doc builds text whose chunks of size 2 start with "c0", "c1", ...
func doc(chunks int) string {
	parts := make([]string, 0, chunks*2)
	for i := range chunks {
		parts = append(parts, "c"+string(rune('0'+i)), "word")
	}
	return strings.Join(parts, " ")
}

// --- Tests ---

func TestIngest_AllChunksAdded(t *testing.T) {
	idx := knowledge.NewIndex()
	svc := New(&mockEmbedder{}, idx, nil).WithChunkWords(2)

	rep, err := svc.Ingest(context.Background(), Document{
		FileName: "a.xml",
		Text:     doc(3),
		Extra:    map[string]any{"file_type": "XML"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.TotalChunks != 3 || rep.Added != 3 || rep.Failed != 0 || rep.Skipped != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if idx.Count() != 3 {
		t.Errorf("expected 3 chunks in index, got %d", idx.Count())
	}

	hits := idx.Search([]float32{1, 0, 0}, 3)
	for i, h := range hits {
		if h.ID != chunk.ID("a.xml", i) {
			t.Errorf("hit %d: expected id %s, got %s", i, chunk.ID("a.xml", i), h.ID)
		}
		if h.Metadata.Total != 3 || h.Metadata.Index != i || h.Metadata.FileName != "a.xml" {
			t.Errorf("hit %d: bad metadata %+v", i, h.Metadata)
		}
		if h.Metadata.Extra["file_type"] != "XML" {
			t.Errorf("hit %d: expected extra metadata to be carried", i)
		}
	}
}

func TestIngest_EmptyText(t *testing.T) {
	emb := &mockEmbedder{}
	idx := knowledge.NewIndex()
	rep, err := New(emb, idx, nil).Ingest(context.Background(), Document{FileName: "e.dat", Text: "  \n\t "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.TotalChunks != 0 || rep.Added != 0 {
		t.Errorf("expected empty report, got %+v", rep)
	}
	if emb.callCount() != 0 {
		t.Errorf("expected no embedding calls, got %d", emb.callCount())
	}
}

func TestIngest_PartialFailure(t *testing.T) {
	emb := &mockEmbedder{failOn: map[string]error{
		"c1": domain.NewProviderError(domain.ErrEmbeddingProviderError, "openai", 500, "boom"),
	}}
	idx := knowledge.NewIndex()

	rep, err := New(emb, idx, nil).WithChunkWords(2).Ingest(context.Background(), Document{FileName: "p.cab", Text: doc(3)})
	if err != nil {
		t.Fatalf("per-chunk failure must not fail the ingestion: %v", err)
	}
	if rep.Added != 2 || rep.Failed != 1 {
		t.Errorf("expected 2 added / 1 failed, got %+v", rep)
	}
	if rep.Results[1].Status() != dombatch.StatusError {
		t.Errorf("expected chunk 1 to fail, got %s", rep.Results[1].Status())
	}
	if !errors.Is(rep.Results[1].Err(), domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error, got %v", rep.Results[1].Err())
	}
	if idx.Count() != 2 {
		t.Errorf("expected 2 chunks stored, got %d", idx.Count())
	}
}

func TestIngest_MissingCredentialAborts(t *testing.T) {
	emb := &mockEmbedder{failOn: map[string]error{"c": domain.ErrMissingCredential}}
	idx := knowledge.NewIndex()

	rep, err := New(emb, idx, nil).WithChunkWords(2).Ingest(context.Background(), Document{FileName: "k.des", Text: doc(4)})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if emb.callCount() != 1 {
		t.Errorf("sequential ingestion must stop after the first call, got %d calls", emb.callCount())
	}
	if rep.Failed != 1 || rep.Skipped != 3 || rep.Added != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if idx.Count() != 0 {
		t.Errorf("expected empty index, got %d", idx.Count())
	}
}

func TestIngest_CancelKeepsEmbeddedChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emb := &mockEmbedder{hook: func(call int) {
		if call == 2 {
			cancel()
		}
	}}
	idx := knowledge.NewIndex()

	rep, err := New(emb, idx, nil).WithChunkWords(2).Ingest(ctx, Document{FileName: "c.moz", Text: doc(4)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The second call returns successfully after cancelling; the rest are never attempted.
	if rep.Added != 2 || rep.Skipped != 2 {
		t.Errorf("expected 2 added / 2 skipped, got %+v", rep)
	}
	if idx.Count() != 2 {
		t.Errorf("expected partial insertion of 2 chunks, got %d", idx.Count())
	}
}

func TestIngest_ConcurrentPreservesOrder(t *testing.T) {
	idx := knowledge.NewIndex()
	svc := New(&mockEmbedder{}, idx, nil).WithChunkWords(2).WithConcurrency(4)

	rep, err := svc.Ingest(context.Background(), Document{FileName: "big.xml", Text: doc(8)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Added != 8 {
		t.Fatalf("expected 8 added, got %+v", rep)
	}
	for i, r := range rep.Results {
		if r.Index() != i || r.ID() != chunk.ID("big.xml", i) {
			t.Errorf("result %d out of order: %s/%d", i, r.ID(), r.Index())
		}
	}
	if src := idx.Sources(); len(src) != 1 || src[0].Chunks != 8 {
		t.Errorf("unexpected sources: %+v", src)
	}
	// Identical scores: stable search returns chunks in insertion order.
	hits := idx.Search([]float32{1, 0, 0}, 8)
	for i, h := range hits {
		if h.Metadata.Index != i {
			t.Errorf("hit %d: expected chunk index %d, got %d", i, i, h.Metadata.Index)
		}
	}
}

func TestIngest_DimensionMismatch(t *testing.T) {
	idx := knowledge.NewIndex()
	seed, _ := chunk.New("seed", "seed", chunk.Metadata{FileName: "seed", Index: 0, Total: 1}, []float32{1, 0, 0})
	idx.Add(seed)

	emb := &mockEmbedder{dims: map[string]int{"c0": 5}}
	rep, err := New(emb, idx, nil).WithChunkWords(2).Ingest(context.Background(), Document{FileName: "d.xml", Text: doc(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Added != 1 || rep.Failed != 1 {
		t.Errorf("expected mismatched chunk to fail, got %+v", rep)
	}
	if rep.Results[0].Status() != dombatch.StatusError {
		t.Errorf("expected chunk 0 to fail, got %s", rep.Results[0].Status())
	}
}

func TestIngest_DimensionMismatchWithinDocument(t *testing.T) {
	idx := knowledge.NewIndex()
	emb := &mockEmbedder{dims: map[string]int{"c1": 5}}

	rep, err := New(emb, idx, nil).WithChunkWords(2).Ingest(context.Background(), Document{FileName: "m.xml", Text: doc(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Added != 2 || rep.Failed != 1 {
		t.Errorf("expected 2 added / 1 failed, got %+v", rep)
	}
	if idx.Dimensions() != 3 {
		t.Errorf("expected index dims 3, got %d", idx.Dimensions())
	}
}

func TestIngest_ConcurrentDocumentsIntoEmptyIndex(t *testing.T) {
	for range 20 {
		idx := knowledge.NewIndex()
		narrow := New(&mockEmbedder{}, idx, nil).WithChunkWords(2)
		wide := New(&mockEmbedder{dims: map[string]int{"c": 5}}, idx, nil).WithChunkWords(2)

		var wg sync.WaitGroup
		var repNarrow, repWide Report
		wg.Add(2)
		go func() {
			defer wg.Done()
			repNarrow, _ = narrow.Ingest(context.Background(), Document{FileName: "n.xml", Text: doc(2)})
		}()
		go func() {
			defer wg.Done()
			repWide, _ = wide.Ingest(context.Background(), Document{FileName: "w.xml", Text: doc(2)})
		}()
		wg.Wait()

		if repNarrow.Added+repWide.Added != idx.Count() || idx.Count() != 2 {
			t.Fatalf("expected one document stored, got %+v / %+v (count %d)", repNarrow, repWide, idx.Count())
		}
		if repNarrow.Failed+repWide.Failed != 2 {
			t.Errorf("expected the other document reported failed, got %+v / %+v", repNarrow, repWide)
		}
		for _, r := range append(repNarrow.Results, repWide.Results...) {
			if r.Status() == dombatch.StatusError && !errors.Is(r.Err(), domain.ErrEmbeddingProviderError) {
				t.Errorf("unexpected failure cause: %v", r.Err())
			}
		}
	}
}
