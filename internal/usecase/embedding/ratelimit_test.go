package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/moe/internal/domain"
)

func TestRateLimitedEmbedder_Delegates(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	r := NewRateLimitedEmbedder(inner, 100, 2)

	for range 2 {
		res, err := r.Embed(context.Background(), "hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Embedding) != 2 {
			t.Fatalf("expected inner result, got %+v", res)
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("expected 2 inner calls, got %d", got)
	}
}

func TestRateLimitedEmbedder_CancelledWait(t *testing.T) {
	inner := &mockEmbedder{}
	r := NewRateLimitedEmbedder(inner, 0.001, 1)

	// Drain the single burst token.
	if _, err := r.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Embed(ctx, "second")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("inner must not be called after a failed wait, got %d calls", got)
	}
}

func TestRateLimitedEmbedder_DeadlineTooShort(t *testing.T) {
	inner := &mockEmbedder{}
	r := NewRateLimitedEmbedder(inner, 0.001, 1)
	if _, err := r.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err := r.Embed(ctx, "second")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestNewRateLimitedEmbedder_MinimumBurst(t *testing.T) {
	r := NewRateLimitedEmbedder(&mockEmbedder{}, 1, 0)
	if got := r.limiter.Burst(); got != 1 {
		t.Errorf("expected burst 1, got %d", got)
	}
}
