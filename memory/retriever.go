package memory

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/meepi-labs/neartotalrecall/logging"
)

// DefaultTopN caps the number of ranked matches when Config.TopN is unset.
const DefaultTopN = 5

// Config configures a Retriever. Artifacts may be nil: operations that need
// a missing artifact degrade to empty results instead of failing, so a
// partially loaded plugin still serves what it can.
type Config struct {
	// Embedder encodes query text. Required for FindClosest.
	Embedder Embedder

	// Cleaned is the cleaned memory table, positionally aligned with Matrix.
	Cleaned *Table

	// Matrix is the precomputed embedding matrix.
	Matrix *Matrix

	// Original is the full-text memory table keyed by Timestamp. Required
	// for ResolveFull only.
	Original *Table

	// TopN caps ranked matches. Defaults to DefaultTopN when <= 0.
	TopN int

	// Threshold drops matches scoring below it before TopN truncation.
	// Zero disables filtering and keeps every scored row.
	Threshold float32

	Logger logging.Logger
}

// Retriever answers nearest-memory queries over the loaded artifacts. All
// state is read-only after construction, so a Retriever may be shared across
// goroutines without locking.
type Retriever struct {
	embedder  Embedder
	cleaned   *Table
	matrix    *Matrix
	original  *Table
	topN      int
	threshold float32
	log       logging.Logger

	scanOK    bool
	resolveOK bool
}

// NewRetriever validates the artifact set and returns a Retriever. Alignment
// problems (row count or dimension mismatch, missing join column) degrade
// the affected path the same way a failed load does; they never error.
func NewRetriever(cfg Config) *Retriever {
	r := &Retriever{
		embedder:  cfg.Embedder,
		cleaned:   cfg.Cleaned,
		matrix:    cfg.Matrix,
		original:  cfg.Original,
		topN:      cfg.TopN,
		threshold: cfg.Threshold,
		log:       cfg.Logger,
	}
	if r.topN <= 0 {
		r.topN = DefaultTopN
	}
	if r.log == nil {
		r.log = logging.NoOp{}
	}

	r.scanOK = r.embedder != nil && r.cleaned != nil && r.matrix != nil
	if r.scanOK {
		switch {
		case r.matrix.Rows() != r.cleaned.Len():
			r.log.Error("embedding matrix is misaligned with cleaned table",
				"matrix_rows", r.matrix.Rows(), "table_rows", r.cleaned.Len())
			r.scanOK = false
		case r.matrix.Dim() != r.embedder.Dimensions():
			r.log.Error("embedding matrix dimension does not match model",
				"matrix_dim", r.matrix.Dim(), "model_dim", r.embedder.Dimensions())
			r.scanOK = false
		case !r.cleaned.HasColumn(ColumnTimestamp):
			r.log.Error("cleaned table is missing the join column", "column", ColumnTimestamp)
			r.scanOK = false
		}
	}

	r.resolveOK = r.original != nil
	if r.resolveOK && (!r.original.HasColumn(ColumnTimestamp) || !r.original.HasColumn(ColumnDescription)) {
		r.log.Error("original table is missing required columns",
			"columns", []string{ColumnTimestamp, ColumnDescription})
		r.resolveOK = false
	}

	return r
}

// Ready reports whether every artifact needed to serve a recall query end to
// end loaded and lines up: model, cleaned table, matrix, and original table.
func (r *Retriever) Ready() bool {
	return r.scanOK && r.resolveOK
}

// FindClosest embeds query, scores it against every stored embedding with a
// raw dot product, and returns at most TopN matches sorted by score
// descending. Rows with equal scores keep their original table order. An
// empty query is valid input and scores like any other string.
//
// When the model, cleaned table, or matrix is unavailable the result is
// empty and the condition is logged; an error is returned only when
// embedding the query itself fails.
func (r *Retriever) FindClosest(ctx context.Context, query string) ([]Match, error) {
	if !r.scanOK {
		r.log.Warn("memory retrieval unavailable", "query", truncateLog(query, 50))
		return nil, nil
	}

	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(q) != r.matrix.Dim() {
		return nil, fmt.Errorf("query embedding has %d dimensions, matrix has %d", len(q), r.matrix.Dim())
	}
	qv := blas32.Vector{N: len(q), Inc: 1, Data: q}

	type scored struct {
		row   int
		score float32
	}
	ranked := make([]scored, 0, r.matrix.Rows())
	for i := 0; i < r.matrix.Rows(); i++ {
		row := r.matrix.Row(i)
		s := blas32.Dot(qv, blas32.Vector{N: len(row), Inc: 1, Data: row})
		if r.threshold > 0 && s < r.threshold {
			continue
		}
		ranked = append(ranked, scored{row: i, score: s})
	}

	// Stable sort keeps earlier rows first on score ties.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}

	matches := make([]Match, len(ranked))
	for i, c := range ranked {
		ts, _ := r.cleaned.Cell(c.row, ColumnTimestamp)
		matches[i] = Match{
			Score:     c.score,
			Record:    r.cleaned.Row(c.row),
			Timestamp: ts,
		}
	}
	r.log.Debug("ranked memories", "query", truncateLog(query, 50), "matches", len(matches))
	return matches, nil
}

// ResolveFull returns the Memory_Description of the first original table row
// whose Timestamp equals key. The second return is false when no row matches
// or the original table is unavailable.
func (r *Retriever) ResolveFull(key string) (string, bool) {
	if !r.resolveOK {
		r.log.Warn("original memory table unavailable", "key", key)
		return "", false
	}
	for i := 0; i < r.original.Len(); i++ {
		if ts, _ := r.original.Cell(i, ColumnTimestamp); ts == key {
			desc, _ := r.original.Cell(i, ColumnDescription)
			return desc, true
		}
	}
	return "", false
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
