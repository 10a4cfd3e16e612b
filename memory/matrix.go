package memory

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"
)

// Matrix is the precomputed embedding matrix, held row-major as one flat
// []float32. Row i is the embedding of cleaned table row i, produced offline
// by the same model used at query time.
type Matrix struct {
	data []float32
	rows int
	dim  int
}

// LoadMatrix reads a NumPy .npy file into a Matrix. The file must hold a
// 2-D C-order array of little-endian float32 or float64 values; float64 is
// converted down on load.
func LoadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse matrix %s: %w", path, err)
	}

	shape := r.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, fmt.Errorf("matrix %s: want a 2-D array, got shape %v", path, shape)
	}
	if r.Header.Descr.Fortran {
		return nil, fmt.Errorf("matrix %s: fortran-order arrays are not supported", path)
	}

	var data []float32
	switch dt := r.Header.Descr.Type; dt {
	case "<f4":
		if err := r.Read(&data); err != nil {
			return nil, fmt.Errorf("read matrix %s: %w", path, err)
		}
	case "<f8":
		var wide []float64
		if err := r.Read(&wide); err != nil {
			return nil, fmt.Errorf("read matrix %s: %w", path, err)
		}
		data = make([]float32, len(wide))
		for i, v := range wide {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("matrix %s: unsupported dtype %q", path, dt)
	}

	return NewMatrix(data, shape[0], shape[1])
}

// NewMatrix builds a Matrix from a row-major flat slice.
func NewMatrix(data []float32, rows, dim int) (*Matrix, error) {
	if rows < 0 || dim <= 0 {
		return nil, fmt.Errorf("matrix: invalid shape %dx%d", rows, dim)
	}
	if len(data) != rows*dim {
		return nil, fmt.Errorf("matrix: %d values do not fill shape %dx%d", len(data), rows, dim)
	}
	return &Matrix{data: data, rows: rows, dim: dim}, nil
}

// Rows returns the number of stored embeddings.
func (m *Matrix) Rows() int {
	return m.rows
}

// Dim returns the embedding dimensionality.
func (m *Matrix) Dim() int {
	return m.dim
}

// Row returns the i-th embedding as a view into the backing slice. Callers
// must not modify it.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim]
}
