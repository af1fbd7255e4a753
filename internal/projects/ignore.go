package projects

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/codelaunch/codelaunch/internal/atomicfile"
)

// IgnoreList holds the user's hidden projects as a persisted set of canonical
// paths. Mutations rewrite the backing file atomically; on a failed write the
// in-memory set stays authoritative and the error is surfaced to the caller.
type IgnoreList struct {
	path   string
	logger zerolog.Logger

	mu  sync.RWMutex
	set map[string]struct{}
}

// NewIgnoreList loads the persisted set from path. A missing or corrupt file
// starts an empty set.
func NewIgnoreList(path string, logger zerolog.Logger) *IgnoreList {
	l := &IgnoreList{
		path:   path,
		logger: logger.With().Str("component", "ignore").Logger(),
		set:    make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn().Err(err).Str("path", path).Msg("ignore file unreadable, starting empty")
		}
		return l
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		l.logger.Warn().Err(err).Str("path", path).Msg("ignore file corrupt, starting empty")
		return l
	}
	for _, p := range paths {
		l.set[CanonicalPath(p)] = struct{}{}
	}
	return l
}

// IsIgnored reports whether the path is hidden.
func (l *IgnoreList) IsIgnored(path string) bool {
	canonical := CanonicalPath(path)
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[canonical]
	return ok
}

// Add hides a project. The returned error only reflects the persist step; the
// in-memory set is updated regardless.
func (l *IgnoreList) Add(path string) error {
	canonical := CanonicalPath(path)
	l.mu.Lock()
	l.set[canonical] = struct{}{}
	l.mu.Unlock()
	return l.persist()
}

// Remove unhides a project.
func (l *IgnoreList) Remove(path string) error {
	canonical := CanonicalPath(path)
	l.mu.Lock()
	delete(l.set, canonical)
	l.mu.Unlock()
	return l.persist()
}

// Paths returns the hidden canonical paths, sorted.
func (l *IgnoreList) Paths() []string {
	l.mu.RLock()
	paths := make([]string, 0, len(l.set))
	for p := range l.set {
		paths = append(paths, p)
	}
	l.mu.RUnlock()
	sort.Strings(paths)
	return paths
}

// Filter returns the entries not present in the set, preserving order. The
// input entries are never mutated.
func (l *IgnoreList) Filter(entries []Entry) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	visible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, hidden := l.set[CanonicalPath(e.Path)]; hidden {
			continue
		}
		visible = append(visible, e)
	}
	return visible
}

func (l *IgnoreList) persist() error {
	return atomicfile.SaveJSON(l.path, l.Paths(), 0o600)
}
