package projects

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelaunch/codelaunch/internal/testutil"
)

func TestHistoryReader_SortedAndDeduplicated(t *testing.T) {
	root := t.TempDir()
	// History contains A (oldest), B (newest), C (middle); expect [B, C, A].
	a := testutil.MakeProjectDir(t, root, "alpha", 1704067200)   // 2024-01-01
	b := testutil.MakeProjectDir(t, root, "bravo", 1706745600)   // 2024-02-01
	c := testutil.MakeProjectDir(t, root, "charlie", 1705276800) // 2024-01-15

	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{
		"file://" + filepath.ToSlash(a),
		"file://" + filepath.ToSlash(b),
		"file://" + filepath.ToSlash(c),
	})

	reader := NewHistoryReader([]string{store}, testutil.NewTestLogger(t))
	entries, err := reader.Read()
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "bravo", entries[0].DisplayName)
	assert.Equal(t, "charlie", entries[1].DisplayName)
	assert.Equal(t, "alpha", entries[2].DisplayName)

	seen := make(map[string]bool)
	for _, e := range entries {
		canonical := CanonicalPath(e.Path)
		assert.False(t, seen[canonical], "duplicate canonical path %s", canonical)
		seen[canonical] = true
	}
}

func TestHistoryReader_DeduplicatesByCanonicalPath(t *testing.T) {
	root := t.TempDir()
	a := testutil.MakeProjectDir(t, root, "proj", 1704067200)

	// Same folder twice: once clean, once with a redundant path segment.
	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{
		"file://" + filepath.ToSlash(a),
		"file://" + filepath.ToSlash(filepath.Join(a, "..", "proj")),
	})

	reader := NewHistoryReader([]string{store}, testutil.NopLogger())
	entries, err := reader.Read()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistoryReader_MissingFolderMarkedNotDropped(t *testing.T) {
	root := t.TempDir()
	exists := testutil.MakeProjectDir(t, root, "here", 1704067200)
	gone := filepath.Join(root, "gone")

	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{
		"file://" + filepath.ToSlash(exists),
		"file://" + filepath.ToSlash(gone),
	})

	reader := NewHistoryReader([]string{store}, testutil.NopLogger())
	entries, err := reader.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Missing folders sort last (zero lastOpened) and stay marked.
	assert.Equal(t, "here", entries[0].DisplayName)
	assert.True(t, entries[1].Missing)
	assert.False(t, entries[0].Missing)
}

func TestHistoryReader_SkipsNonFileURIs(t *testing.T) {
	root := t.TempDir()
	a := testutil.MakeProjectDir(t, root, "local", 1704067200)

	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{
		"file://" + filepath.ToSlash(a),
		"vscode-remote://ssh-remote%2Bhost/home/u/proj",
		"untitled:Untitled-1",
	})

	reader := NewHistoryReader([]string{store}, testutil.NopLogger())
	entries, err := reader.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "local", entries[0].DisplayName)
}

func TestHistoryReader_MissingStoreIsParseError(t *testing.T) {
	reader := NewHistoryReader([]string{filepath.Join(t.TempDir(), "nope.json")}, testutil.NopLogger())

	_, err := reader.Read()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestHistoryReader_MalformedStoreIsParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	reader := NewHistoryReader([]string{path}, testutil.NopLogger())
	_, err := reader.Read()

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.Path)
}

func TestHistoryReader_ProbesPathsInOrder(t *testing.T) {
	root := t.TempDir()
	a := testutil.MakeProjectDir(t, root, "proj", 1704067200)
	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{"file://" + filepath.ToSlash(a)})

	missing := filepath.Join(t.TempDir(), "absent.json")
	reader := NewHistoryReader([]string{missing, store}, testutil.NopLogger())

	entries, err := reader.Read()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPathFromURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
		ok   bool
	}{
		{"unix path", "file:///home/dev/proj", "/home/dev/proj", true},
		{"escaped space", "file:///home/dev/my%20proj", "/home/dev/my proj", true},
		{"windows drive", "file:///C:/dev/proj", "C:/dev/proj", true},
		{"windows escaped colon", "file:///c%3A/dev/proj", "c:/dev/proj", true},
		{"remote uri", "vscode-remote://ssh/home/u", "", false},
		{"empty", "file://", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pathFromURI(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
