package projects

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"

	"github.com/codelaunch/codelaunch/internal/atomicfile"
)

// CacheStore persists the last-known entry list so startup can serve a list
// immediately, before the first fresh scan completes.
type CacheStore struct {
	path   string
	logger zerolog.Logger
}

// NewCacheStore creates a cache store backed by the given file.
func NewCacheStore(path string, logger zerolog.Logger) *CacheStore {
	return &CacheStore{
		path:   path,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Load returns the cached entries. A missing or corrupt cache yields an empty
// list, never an error; corruption is logged and repaired by the next save.
func (c *CacheStore) Load() []Entry {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("path", c.path).Msg("cache unreadable, starting empty")
		}
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn().Err(err).Str("path", c.path).Msg("cache corrupt, starting empty")
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

// Save overwrites the cache atomically.
func (c *CacheStore) Save(entries []Entry) error {
	return atomicfile.SaveJSON(c.path, entries, 0o600)
}
