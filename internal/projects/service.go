package projects

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Launcher starts the editor against a project path.
type Launcher interface {
	Launch(ctx context.Context, path string) error
}

// Status summarizes service state for the system endpoint.
type Status struct {
	Entries      int        `json:"entries"`
	Visible      int        `json:"visible"`
	Ignored      int        `json:"ignored"`
	LastScan     *time.Time `json:"lastScan,omitempty"`
	CacheServing bool       `json:"cacheServing"`
}

// Service owns the current entry list and coordinates the cache, reader,
// scanner, ignore list and launcher. The interactive layer only ever sees
// immutable snapshots.
type Service struct {
	cache    *CacheStore
	ignores  *IgnoreList
	scanner  *Scanner
	launcher Launcher
	hub      Broadcaster
	logger   zerolog.Logger

	mu           sync.RWMutex
	entries      []Entry
	lastScan     *time.Time
	cacheServing bool
}

// NewService wires the domain core together. The scanner is created here so
// its update path lands back in the service.
func NewService(reader *HistoryReader, cache *CacheStore, ignores *IgnoreList, launcher Launcher, hub Broadcaster, logger zerolog.Logger) *Service {
	s := &Service{
		cache:    cache,
		ignores:  ignores,
		launcher: launcher,
		hub:      hub,
		logger:   logger.With().Str("component", "projects").Logger(),
	}
	s.scanner = NewScanner(reader, cache, hub, s.applyScan, logger)
	return s
}

// Start serves the cached list immediately, then kicks off a fresh scan in
// the background.
func (s *Service) Start() {
	cached := s.cache.Load()
	s.mu.Lock()
	s.entries = cached
	s.cacheServing = true
	s.mu.Unlock()
	s.logger.Info().Int("entries", len(cached)).Msg("serving cached entries")

	s.scanner.Start()
	s.scanner.Trigger()
}

// Stop abandons any in-flight scan.
func (s *Service) Stop() {
	s.scanner.Stop()
}

// Refresh requests a background rescan; triggers during a running scan
// coalesce.
func (s *Service) Refresh() {
	s.scanner.Trigger()
}

// List returns the visible entries, most recently opened first, optionally
// filtered by a case-insensitive display-name substring.
func (s *Service) List(query string) []Entry {
	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()

	visible := s.ignores.Filter(entries)
	if query == "" {
		return visible
	}

	q := strings.ToLower(query)
	matched := visible[:0:0]
	for _, e := range visible {
		if strings.Contains(strings.ToLower(e.DisplayName), q) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Launch opens the editor for path after checking the folder still exists.
func (s *Service) Launch(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("launch: path is required")
	}
	if err := s.launcher.Launch(ctx, path); err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}
	s.logger.Info().Str("path", path).Msg("project launched")
	return nil
}

// Ignore hides a project and immediately republishes the visible list so the
// entry disappears without waiting for a scan.
func (s *Service) Ignore(path string) error {
	err := s.ignores.Add(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("ignore persist failed, in-memory set stays authoritative")
		s.broadcast(EventIgnoreWriteFailed, WriteFailedPayload{Error: err.Error()})
	}
	s.publishVisible()
	return err
}

// Unignore unhides a project and republishes.
func (s *Service) Unignore(path string) error {
	err := s.ignores.Remove(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("ignore persist failed, in-memory set stays authoritative")
		s.broadcast(EventIgnoreWriteFailed, WriteFailedPayload{Error: err.Error()})
	}
	s.publishVisible()
	return err
}

// IgnoredPaths returns the persisted hidden set.
func (s *Service) IgnoredPaths() []string {
	return s.ignores.Paths()
}

// Status reports counts and scan freshness.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Entries:      len(s.entries),
		Visible:      len(s.ignores.Filter(s.entries)),
		Ignored:      len(s.ignores.Paths()),
		LastScan:     s.lastScan,
		CacheServing: s.cacheServing,
	}
}

// applyScan installs a fresh snapshot from the scanner goroutine.
func (s *Service) applyScan(entries []Entry) {
	now := time.Now()
	s.mu.Lock()
	s.entries = entries
	s.lastScan = &now
	s.cacheServing = false
	s.mu.Unlock()
	s.publishVisible()
}

func (s *Service) publishVisible() {
	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()
	s.broadcast(EventProjectsUpdated, UpdatedPayload{Entries: s.ignores.Filter(entries)})
}

func (s *Service) broadcast(msgType string, payload interface{}) {
	if s.hub != nil {
		_ = s.hub.Broadcast(msgType, payload)
	}
}
