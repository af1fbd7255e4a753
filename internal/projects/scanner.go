package projects

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// iconCandidates are probed in the project root, first readable match wins.
var iconCandidates = []string{"icon.png", "icon.svg"}

// Broadcaster fans events out to connected UI clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Scanner re-reads history off the interactive path and publishes fresh entry
// lists. At most one scan runs at a time; triggers received mid-scan coalesce
// into a single follow-up.
type Scanner struct {
	reader   *HistoryReader
	cache    *CacheStore
	logger   zerolog.Logger
	hub      Broadcaster
	onUpdate func([]Entry)

	trigger     chan struct{}
	cacheWarned atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScanner creates a scanner. onUpdate receives each fresh entry list on
// the scanner goroutine; implementations must hand off, not block.
func NewScanner(reader *HistoryReader, cache *CacheStore, hub Broadcaster, onUpdate func([]Entry), logger zerolog.Logger) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scanner{
		reader:   reader,
		cache:    cache,
		logger:   logger.With().Str("component", "scanner").Logger(),
		hub:      hub,
		onUpdate: onUpdate,
		trigger:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the scan worker.
func (s *Scanner) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop abandons any in-flight scan result and stops the worker.
func (s *Scanner) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Trigger requests a scan. Safe from any goroutine; never blocks. A trigger
// arriving while a scan is running is absorbed by the single-slot channel, so
// bursts collapse into at most one follow-up scan.
func (s *Scanner) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scanner) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.trigger:
			s.scan()
		}
	}
}

func (s *Scanner) scan() {
	scanID := uuid.NewString()
	started := time.Now()
	s.broadcast(EventScanStarted, ScanStartedPayload{ScanID: scanID})

	entries, err := s.reader.Read()
	if err != nil {
		// Last good cache keeps serving; not fatal.
		s.logger.Warn().Err(err).Str("scanId", scanID).Msg("history unreadable, keeping cached entries")
		s.broadcast(EventScanFailed, ScanFailedPayload{ScanID: scanID, Error: err.Error()})
		return
	}

	for i := range entries {
		entries[i].IconPath = resolveIcon(entries[i].Path)
	}

	if err := s.cache.Save(entries); err != nil {
		s.logger.Error().Err(err).Str("scanId", scanID).Msg("cache write failed, in-memory list stays authoritative")
		if !s.cacheWarned.Swap(true) {
			s.broadcast(EventCacheWriteFailed, WriteFailedPayload{Error: err.Error()})
		}
	} else {
		s.cacheWarned.Store(false)
	}

	if s.onUpdate != nil {
		s.onUpdate(entries)
	}

	s.broadcast(EventScanCompleted, ScanCompletedPayload{
		ScanID:     scanID,
		Entries:    len(entries),
		DurationMS: time.Since(started).Milliseconds(),
	})
	s.logger.Info().Str("scanId", scanID).Int("entries", len(entries)).Dur("duration", time.Since(started)).Msg("scan complete")
}

func (s *Scanner) broadcast(msgType string, payload interface{}) {
	if s.hub != nil {
		_ = s.hub.Broadcast(msgType, payload)
	}
}

// resolveIcon probes the project root for an icon file. Failures are isolated
// per entry: anything unreadable just leaves the icon unset.
func resolveIcon(projectPath string) string {
	for _, name := range iconCandidates {
		candidate := filepath.Join(projectPath, name)
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return candidate
	}
	return ""
}
