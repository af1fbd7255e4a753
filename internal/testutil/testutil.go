// Package testutil provides shared helpers for package tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// Polling bounds for assert.Eventually style checks.
const (
	WaitTimeout = 5 * time.Second
	WaitTick    = 10 * time.Millisecond
)

// NewTestLogger creates a test logger that outputs through t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// WriteHistoryStore writes a storage.json holding the given workspace URIs
// into dir and returns its path.
func WriteHistoryStore(t *testing.T, dir string, uris []string) string {
	t.Helper()

	workspaces := make(map[string]string, len(uris))
	for _, uri := range uris {
		workspaces[uri] = "__default__"
	}
	doc := map[string]any{
		"profileAssociations": map[string]any{
			"workspaces": workspaces,
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal history store: %v", err)
	}

	path := filepath.Join(dir, "storage.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write history store: %v", err)
	}
	return path
}

// MakeProjectDir creates a project directory under root and pins its mtime.
func MakeProjectDir(t *testing.T, root, name string, mtime int64) string {
	t.Helper()

	path := filepath.Join(root, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("create project dir: %v", err)
	}
	when := time.Unix(mtime, 0)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("set project mtime: %v", err)
	}
	return path
}
