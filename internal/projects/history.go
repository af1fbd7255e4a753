package projects

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ParseError reports an unreadable or malformed history store. Callers fall
// back to the last good cache when they see one.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("history: no store found: %v", e.Err)
	}
	return fmt.Sprintf("history: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// storageFile mirrors the slice of the editor's globalStorage/storage.json we
// depend on: workspace URIs keyed under profileAssociations.
type storageFile struct {
	ProfileAssociations struct {
		Workspaces map[string]string `json:"workspaces"`
	} `json:"profileAssociations"`
}

// HistoryReader parses the editor's recent-workspace store into normalized
// entries. Read-only; it never mutates the store.
type HistoryReader struct {
	paths  []string
	logger zerolog.Logger
}

// NewHistoryReader creates a reader probing the given store locations in
// order; the first existing file wins.
func NewHistoryReader(paths []string, logger zerolog.Logger) *HistoryReader {
	return &HistoryReader{
		paths:  paths,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Read produces the deduplicated entry list, most recently opened first.
// A missing or malformed store yields a *ParseError.
func (r *HistoryReader) Read() ([]Entry, error) {
	path, data, err := r.readStore()
	if err != nil {
		return nil, err
	}

	var store storageFile
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	seen := make(map[string]struct{})
	entries := make([]Entry, 0, len(store.ProfileAssociations.Workspaces))
	for uri := range store.ProfileAssociations.Workspaces {
		fsPath, ok := pathFromURI(uri)
		if !ok {
			continue
		}
		canonical := CanonicalPath(fsPath)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}

		entry := Entry{
			Path:        fsPath,
			DisplayName: displayName(fsPath),
		}
		if info, err := os.Stat(fsPath); err == nil && info.IsDir() {
			entry.LastOpened = info.ModTime()
		} else {
			// Backing folder is gone: kept and marked rather than pruned so
			// projects on unmounted volumes are not silently dropped.
			entry.Missing = true
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastOpened.After(entries[j].LastOpened)
	})

	r.logger.Debug().Str("store", path).Int("entries", len(entries)).Msg("history read")
	return entries, nil
}

func (r *HistoryReader) readStore() (string, []byte, error) {
	for _, path := range r.paths {
		data, err := os.ReadFile(path)
		if err == nil {
			return path, data, nil
		}
		if !os.IsNotExist(err) {
			return "", nil, &ParseError{Path: path, Err: err}
		}
	}
	return "", nil, &ParseError{Err: os.ErrNotExist}
}

// pathFromURI converts a file:// URI from the store into a filesystem path.
// Non-file URIs (remote workspaces, untitled) are skipped.
func pathFromURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, "file://") {
		return "", false
	}
	raw := strings.TrimPrefix(uri, "file://")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	// Windows URIs carry a leading slash before the drive letter: /C:/dev.
	if len(decoded) >= 3 && decoded[0] == '/' && decoded[2] == ':' {
		decoded = decoded[1:]
	}
	if decoded == "" {
		return "", false
	}
	return decoded, true
}
