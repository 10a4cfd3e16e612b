// Package memory implements nearest-memory retrieval over a precomputed
// embedding matrix.
//
// Three data artifacts plus an embedding model are loaded once and then
// treated as read-only:
//   - Table (cleaned): one row per memory, positionally aligned with the
//     matrix, carrying the Timestamp join key.
//   - Matrix: the embedding of each cleaned row, produced offline by the
//     same model used at query time.
//   - Table (original): full-text memories keyed by Timestamp.
//   - Embedder: text-to-vector conversion (mock for testing, ONNX MiniLM
//     for real deployments).
//
// Retriever ties them together: FindClosest embeds a query, scores it
// against every matrix row with a raw dot product, ranks descending, and
// truncates to the configured result count; ResolveFull joins a match back
// to its full text. A missing or misaligned artifact degrades the affected
// operation to an empty result rather than an error, so the plugin keeps
// running with whatever loaded.
//
// Nothing here mutates after construction, so one Retriever may serve
// concurrent callers without locking.
package memory
