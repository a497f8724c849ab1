package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWrite_FallsBackWithoutTemplate(t *testing.T) {
	dir := t.TempDir()
	w := New("")

	path, err := w.Write(context.Background(), "2026-06", map[string]string{
		"final_grade": "B",
		"period":      "2026-06",
	}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Ext(path) != ".txt" {
		t.Fatalf("expected .txt fallback, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "2026-06") || !strings.Contains(string(data), "final_grade: B") {
		t.Fatalf("unexpected fallback content: %s", data)
	}
}

func TestWrite_FallsBackWhenTemplateMissing(t *testing.T) {
	dir := t.TempDir()
	w := New(filepath.Join(dir, "does-not-exist.docx"))

	path, err := w.Write(context.Background(), "2026-07", map[string]string{"period": "2026-07"}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(path) != ".txt" {
		t.Fatalf("expected .txt fallback, got %s", path)
	}
}

func TestOutputName(t *testing.T) {
	if got := outputName("2026-05"); got != "REP-2026-05" {
		t.Fatalf("unexpected output name: %s", got)
	}
}
