//go:build !onnx

package minilm

import "context"

// Embedder is unavailable without the onnx build tag. The type exists so
// call sites compile either way; New always fails with ErrUnavailable and
// callers degrade the same way they would for a missing model file.
type Embedder struct {
	dims int
}

// New reports that the binary was built without onnx support.
func New(cfg Config) (*Embedder, error) {
	return nil, ErrUnavailable
}

// Embed is unreachable in stub builds; it mirrors the real signature.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrUnavailable
}

// Dimensions returns the configured embedding size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}
