package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// editorDirs are the editor variants whose profile directories are probed for
// a recent-workspace store, most common first.
var editorDirs = []string{"Code", "Code - Insiders", "VSCodium"}

// DataDir returns the per-OS application data directory, creating it if
// needed.
func DataDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			dir = filepath.Join(localAppData, "CodeLaunch")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, "Library", "Application Support", "CodeLaunch")
		}
	default:
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config", "codelaunch")
		}
	}
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultHistoryPaths returns the per-OS candidate locations of the editor's
// globalStorage/storage.json, across known editor variants.
func DefaultHistoryPaths() []string {
	var bases []string
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			bases = append(bases, appData)
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			bases = append(bases, filepath.Join(home, "Library", "Application Support"))
		}
	default:
		if home, err := os.UserHomeDir(); err == nil {
			bases = append(bases, filepath.Join(home, ".config"))
		}
	}

	paths := make([]string, 0, len(bases)*len(editorDirs))
	for _, base := range bases {
		for _, editor := range editorDirs {
			paths = append(paths, filepath.Join(base, editor, "User", "globalStorage", "storage.json"))
		}
	}
	return paths
}
