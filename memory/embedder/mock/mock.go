// Package mock provides a deterministic stand-in for a real sentence
// encoder. Vectors are derived from a hash of the input text, so identical
// texts always embed identically, but there is no semantic similarity.
package mock

import (
	"context"
	"hash/fnv"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Embedder generates hash-based unit vectors.
type Embedder struct {
	dims int
}

// New returns an Embedder matching the 384-dimension output of
// all-MiniLM-L6-v2, so mock vectors line up with real artifacts.
func New() *Embedder {
	return &Embedder{dims: 384}
}

// NewWithDimensions returns an Embedder producing vectors of the given
// size.
func NewWithDimensions(dims int) *Embedder {
	return &Embedder{dims: dims}
}

// Embed derives a deterministic unit vector from an FNV-1a hash of text,
// expanded through a linear congruential generator.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	v := blas32.Vector{N: len(vec), Inc: 1, Data: vec}
	if n := blas32.Nrm2(v); n > 0 {
		blas32.Scal(1/n, v)
	}
	return vec, nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dims
}
