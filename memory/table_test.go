package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meepi-labs/neartotalrecall/memory"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestLoadTable(t *testing.T) {
	path := writeCSV(t, "Timestamp,Memory_Description\nT0,went to the beach\nT1,\"dinner, then a movie\"\n")

	table, err := memory.LoadTable(path)
	if err != nil {
		t.Fatalf("Failed to load table: %v", err)
	}

	if table.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", table.Len())
	}
	if !table.HasColumn("Timestamp") || !table.HasColumn("Memory_Description") {
		t.Errorf("Expected both columns present, got %v", table.Columns())
	}
	if v, ok := table.Cell(0, "Timestamp"); !ok || v != "T0" {
		t.Errorf("Cell(0, Timestamp) = %q, %v", v, ok)
	}
	// Quoted commas must survive the round trip.
	if v, _ := table.Cell(1, "Memory_Description"); v != "dinner, then a movie" {
		t.Errorf("Quoted field mangled: %q", v)
	}

	row := table.Row(1)
	if row["Timestamp"] != "T1" {
		t.Errorf("Row(1) = %v", row)
	}
}

func TestLoadTable_MissingFile(t *testing.T) {
	if _, err := memory.LoadTable(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("Expected error for a missing file")
	}
}

func TestLoadTable_RaggedRows(t *testing.T) {
	path := writeCSV(t, "Timestamp,Memory_Description\nT0\n")
	if _, err := memory.LoadTable(path); err == nil {
		t.Fatal("Expected error for a row with the wrong field count")
	}
}

func TestLoadTable_Empty(t *testing.T) {
	path := writeCSV(t, "")
	if _, err := memory.LoadTable(path); err == nil {
		t.Fatal("Expected error for a file with no header row")
	}
}

func TestTable_CellBounds(t *testing.T) {
	table := memory.NewTable([]string{"Timestamp"}, [][]string{{"T0"}})

	if _, ok := table.Cell(5, "Timestamp"); ok {
		t.Error("Out-of-range row must report absent")
	}
	if _, ok := table.Cell(0, "Nope"); ok {
		t.Error("Unknown column must report absent")
	}
	if row := table.Row(-1); row != nil {
		t.Errorf("Row(-1) = %v, want nil", row)
	}
}
