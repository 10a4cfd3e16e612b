package memory

import "context"

// Column names of the memory artifacts. Timestamp is the join key that links
// a cleaned table row to its full-text counterpart in the original table.
const (
	ColumnTimestamp   = "Timestamp"
	ColumnDescription = "Memory_Description"
)

// Embedder converts text to vector embeddings.
// Implementations: mock.Embedder (testing, deterministic hash),
// minilm.Embedder (local ONNX model, offline).
//
// Embedders must be deterministic: identical input text yields an identical
// vector for the lifetime of the process. Retrieval results are only
// reproducible under that property.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns embedding vector size.
	Dimensions() int
}

// Row is one table record keyed by column name.
type Row map[string]string

// Match is one scored retrieval hit: the cleaned record that scored, its
// raw dot-product score against the query, and its Timestamp join key into
// the original table.
type Match struct {
	Score     float32
	Record    Row
	Timestamp string
}
