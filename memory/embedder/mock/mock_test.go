package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/meepi-labs/neartotalrecall/memory/embedder/mock"
)

func TestEmbedder_Deterministic(t *testing.T) {
	m := mock.New()

	first, err := m.Embed(context.Background(), "do you recall the beach")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	second, err := m.Embed(context.Background(), "do you recall the beach")
	if err != nil {
		t.Fatalf("Embed failed on repeat: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Embedding diverged at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestEmbedder_UnitNorm(t *testing.T) {
	m := mock.NewWithDimensions(16)

	vec, err := m.Embed(context.Background(), "some memory")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 16 {
		t.Fatalf("Expected 16 dimensions, got %d", len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("Expected a unit vector, got norm %v", norm)
	}
}

func TestEmbedder_DistinctTexts(t *testing.T) {
	m := mock.New()

	a, err := m.Embed(context.Background(), "first")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := m.Embed(context.Background(), "second")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different texts produced identical embeddings")
	}
}

func TestEmbedder_Dimensions(t *testing.T) {
	if got := mock.New().Dimensions(); got != 384 {
		t.Errorf("Default dimensions = %d, want 384", got)
	}
	if got := mock.NewWithDimensions(64).Dimensions(); got != 64 {
		t.Errorf("Custom dimensions = %d, want 64", got)
	}
}
