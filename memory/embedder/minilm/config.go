// Package minilm embeds text with a BERT-shaped sentence encoder (by
// default all-MiniLM-L6-v2) exported to ONNX, executed through onnxruntime.
//
// The onnxruntime binding needs the native library at build and run time,
// so the real embedder sits behind the `onnx` build tag. Builds without the
// tag get a stub whose constructor returns ErrUnavailable, which callers
// treat like any other model-load failure.
package minilm

import "errors"

// Defaults for all-MiniLM-L6-v2.
const (
	DefaultDimensions = 384
	DefaultMaxSeqLen  = 128
)

// ErrUnavailable is returned by New in builds without the onnx tag.
var ErrUnavailable = errors.New("minilm: built without the onnx tag")

// Config configures the embedder.
type Config struct {
	// ModelPath is the path to the model.onnx file.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file shipped with
	// the model.
	TokenizerPath string

	// LibraryPath optionally points at the onnxruntime shared library.
	// Empty leaves the binding's platform default lookup in place.
	LibraryPath string

	// Dimensions is the embedding vector size. Defaults to
	// DefaultDimensions.
	Dimensions int

	// MaxSeqLen is the model's fixed input length; longer queries are
	// truncated. Defaults to DefaultMaxSeqLen.
	MaxSeqLen int
}
