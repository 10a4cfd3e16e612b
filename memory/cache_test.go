package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/meepi-labs/neartotalrecall/memory"
)

func TestCachedEmbedder_HitSkipsModel(t *testing.T) {
	inner := &stubEmbedder{dims: 2, vectors: map[string][]float32{"hello": {0.5, 0.5}}}
	cached, err := memory.NewCachedEmbedder(inner, 8)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer cached.Close()

	first, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	cached.Wait()

	second, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed on repeat: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("Expected 1 model call after a cache hit, got %d", inner.calls)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Cache returned a different vector: %v vs %v", first, second)
		}
	}
}

func TestCachedEmbedder_DistinctTexts(t *testing.T) {
	inner := &stubEmbedder{dims: 2}
	cached, err := memory.NewCachedEmbedder(inner, 8)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer cached.Close()

	if _, err := cached.Embed(context.Background(), "one"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	cached.Wait()
	if _, err := cached.Embed(context.Background(), "two"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("Expected 2 model calls for distinct texts, got %d", inner.calls)
	}
}

func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	inner := &stubEmbedder{dims: 2, err: errors.New("model failure")}
	cached, err := memory.NewCachedEmbedder(inner, 8)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer cached.Close()

	if _, err := cached.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("Expected the model error to propagate")
	}

	// Once the model recovers, the same text must embed cleanly.
	inner.err = nil
	inner.vectors = map[string][]float32{"hello": {1, 0}}
	vec, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed after recovery: %v", err)
	}
	if vec[0] != 1 {
		t.Errorf("Expected the fresh vector, got %v", vec)
	}
}

func TestCachedEmbedder_Dimensions(t *testing.T) {
	inner := &stubEmbedder{dims: 384}
	cached, err := memory.NewCachedEmbedder(inner, 0)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer cached.Close()

	if cached.Dimensions() != 384 {
		t.Errorf("Expected dimensions passthrough, got %d", cached.Dimensions())
	}
}
