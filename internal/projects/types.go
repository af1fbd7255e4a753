package projects

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Entry is one recently opened project. Entries are value objects rebuilt on
// every scan; identity across scans is canonical-path equality only.
type Entry struct {
	Path        string    `json:"path"`
	DisplayName string    `json:"displayName"`
	LastOpened  time.Time `json:"lastOpened"`
	IconPath    string    `json:"iconPath,omitempty"`
	Missing     bool      `json:"missing,omitempty"`
}

// CanonicalPath normalizes a filesystem path for equality comparison:
// cleaned, symlinks resolved when the target exists, forward slashes, and
// case-folded on Windows.
func CanonicalPath(path string) string {
	if path == "" {
		return ""
	}
	p := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	p = filepath.ToSlash(p)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}

// displayName derives the visible project name from its path.
func displayName(path string) string {
	return filepath.Base(filepath.Clean(path))
}
