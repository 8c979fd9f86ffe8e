package parser

import (
	"os"
	"path/filepath"
	"testing"

	"manga_bot/internal/model"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestParseUnknownMode(t *testing.T) {
	_, err := Parse(model.Target{Name: "x", Mode: "yaml"}, "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
