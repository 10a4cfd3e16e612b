package memory_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meepi-labs/neartotalrecall/memory"
)

// writeNpy writes a minimal NPY v1.0 file, the same layout numpy produces.
func writeNpy(t *testing.T, descr string, fortran bool, shape string, data any) string {
	t.Helper()

	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", descr, order, shape)
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatalf("Failed to encode header length: %v", err)
	}
	buf.WriteString(header)
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		t.Fatalf("Failed to encode matrix data: %v", err)
	}

	path := filepath.Join(t.TempDir(), "embeddings.npy")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestLoadMatrix_Float32(t *testing.T) {
	path := writeNpy(t, "<f4", false, "(3, 2)", []float32{1, 0, 0, 1, 0.7, 0.7})

	m, err := memory.LoadMatrix(path)
	if err != nil {
		t.Fatalf("Failed to load matrix: %v", err)
	}
	if m.Rows() != 3 || m.Dim() != 2 {
		t.Fatalf("Expected shape 3x2, got %dx%d", m.Rows(), m.Dim())
	}
	row := m.Row(2)
	if row[0] != 0.7 || row[1] != 0.7 {
		t.Errorf("Row(2) = %v, want [0.7 0.7]", row)
	}
}

func TestLoadMatrix_Float64Converted(t *testing.T) {
	path := writeNpy(t, "<f8", false, "(2, 2)", []float64{1, 0, 0.5, 0.25})

	m, err := memory.LoadMatrix(path)
	if err != nil {
		t.Fatalf("Failed to load float64 matrix: %v", err)
	}
	if m.Rows() != 2 || m.Dim() != 2 {
		t.Fatalf("Expected shape 2x2, got %dx%d", m.Rows(), m.Dim())
	}
	row := m.Row(1)
	if row[0] != 0.5 || row[1] != 0.25 {
		t.Errorf("Row(1) = %v, want [0.5 0.25]", row)
	}
}

func TestLoadMatrix_EmptyRows(t *testing.T) {
	path := writeNpy(t, "<f4", false, "(0, 2)", []float32{})

	m, err := memory.LoadMatrix(path)
	if err != nil {
		t.Fatalf("Failed to load empty matrix: %v", err)
	}
	if m.Rows() != 0 || m.Dim() != 2 {
		t.Errorf("Expected shape 0x2, got %dx%d", m.Rows(), m.Dim())
	}
}

func TestLoadMatrix_RejectsFortranOrder(t *testing.T) {
	path := writeNpy(t, "<f4", true, "(2, 2)", []float32{1, 2, 3, 4})
	if _, err := memory.LoadMatrix(path); err == nil {
		t.Fatal("Expected error for a fortran-order file")
	}
}

func TestLoadMatrix_RejectsOneDimensional(t *testing.T) {
	path := writeNpy(t, "<f4", false, "(4,)", []float32{1, 2, 3, 4})
	if _, err := memory.LoadMatrix(path); err == nil {
		t.Fatal("Expected error for a 1-D array")
	}
}

func TestLoadMatrix_RejectsUnsupportedDtype(t *testing.T) {
	path := writeNpy(t, "<i4", false, "(2, 2)", []int32{1, 2, 3, 4})
	if _, err := memory.LoadMatrix(path); err == nil {
		t.Fatal("Expected error for an integer dtype")
	}
}

func TestLoadMatrix_MissingFile(t *testing.T) {
	if _, err := memory.LoadMatrix(filepath.Join(t.TempDir(), "absent.npy")); err == nil {
		t.Fatal("Expected error for a missing file")
	}
}

func TestNewMatrix_ShapeMismatch(t *testing.T) {
	if _, err := memory.NewMatrix([]float32{1, 2, 3}, 2, 2); err == nil {
		t.Fatal("Expected error when data does not fill the shape")
	}
}
