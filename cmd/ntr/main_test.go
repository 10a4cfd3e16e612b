package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meepi-labs/neartotalrecall/memory"
	"github.com/meepi-labs/neartotalrecall/memory/embedder/mock"
)

func writeOriginalCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "MeePiMemories.csv")
	contents := "Timestamp,Memory_Description\n" +
		"2024-05-01 10:00:00,\"Went to the beach, collected shells.\"\n" +
		"2024-05-02 11:30:00,Fixed the robot arm!\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func runEmbed(t *testing.T, dir, input string) (cleaned, embeddings string) {
	t.Helper()
	cleaned = filepath.Join(dir, "cleaned_memories.csv")
	embeddings = filepath.Join(dir, "memory_embeddings.npy")

	cmd := embedCmd()
	cmd.SetArgs([]string{
		"--input", input,
		"--cleaned", cleaned,
		"--embeddings", embeddings,
		"--model", "mock",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Failed to run embed: %v", err)
	}
	return cleaned, embeddings
}

func TestEmbedCommand_BuildsArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := writeOriginalCSV(t, dir)
	cleaned, embeddings := runEmbed(t, dir, input)

	table, err := memory.LoadTable(cleaned)
	if err != nil {
		t.Fatalf("Failed to load cleaned table: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Cleaned table has %d rows, want 2", table.Len())
	}
	wantText := "went to the beach collected shells"
	if got, _ := table.Cell(0, memory.ColumnDescription); got != wantText {
		t.Errorf("Cleaned text = %q, want %q", got, wantText)
	}
	if got, _ := table.Cell(0, memory.ColumnTimestamp); got != "2024-05-01 10:00:00" {
		t.Errorf("Timestamp = %q, want the original value", got)
	}

	matrix, err := memory.LoadMatrix(embeddings)
	if err != nil {
		t.Fatalf("Failed to load embedding matrix: %v", err)
	}
	if matrix.Rows() != 2 {
		t.Errorf("Matrix has %d rows, want 2", matrix.Rows())
	}
	m := mock.New()
	if matrix.Dim() != m.Dimensions() {
		t.Fatalf("Matrix dim = %d, want %d", matrix.Dim(), m.Dimensions())
	}

	want, err := m.Embed(context.Background(), wantText)
	if err != nil {
		t.Fatalf("Failed to embed reference text: %v", err)
	}
	got := matrix.Row(0)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Matrix row 0 diverges from the mock embedding at %d: %v != %v", i, got[i], want[i])
		}
	}
}

func TestEmbedCommand_MissingInput(t *testing.T) {
	cmd := embedCmd()
	cmd.SetArgs([]string{"--input", filepath.Join(t.TempDir(), "nope.csv"), "--model", "mock"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected an error for a missing input file")
	}
}

func TestEmbedCommand_WrongColumns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "wrong.csv")
	if err := os.WriteFile(input, []byte("When,What\nnow,something\n"), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", input, err)
	}

	cmd := embedCmd()
	cmd.SetArgs([]string{"--input", input, "--model", "mock"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected an error for missing columns")
	}
}

func TestQueryCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeOriginalCSV(t, dir)
	cleaned, embeddings := runEmbed(t, dir, input)

	settingsPath := filepath.Join(dir, "settings.json")
	settings, err := json.Marshal(map[string]string{
		"cleaned_data_path":  cleaned,
		"embeddings_path":    embeddings,
		"original_data_path": input,
		"model_name":         "mock",
	})
	if err != nil {
		t.Fatalf("Failed to encode settings: %v", err)
	}
	if err := os.WriteFile(settingsPath, settings, 0o644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	cmd := queryCmd()
	cmd.SetArgs(append([]string{"--settings", settingsPath},
		strings.Fields("went to the beach collected shells")...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Failed to run query: %v", err)
	}
}

func TestNewEmbedder_Mock(t *testing.T) {
	emb, err := newEmbedder("mock", "", "")
	if err != nil {
		t.Fatalf("Failed to construct the mock embedder: %v", err)
	}
	if _, ok := emb.(*mock.Embedder); !ok {
		t.Errorf("newEmbedder returned %T, want *mock.Embedder", emb)
	}
}

func TestResolveSettingsPath(t *testing.T) {
	if got := resolveSettingsPath("/tmp/custom.json"); got != "/tmp/custom.json" {
		t.Errorf("resolveSettingsPath = %q, want the explicit path", got)
	}
	got := resolveSettingsPath("")
	if got == "" || filepath.Base(got) != "settings.json" {
		t.Errorf("resolveSettingsPath(\"\") = %q, want a settings.json default", got)
	}
}
