package logger

import (
	"encoding/json"
	"sync"
)

// Broadcaster fans a message out to connected UI clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Entry is a parsed log line held for streaming to the UI layer.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Stream implements io.Writer, keeping a bounded buffer of recent entries
// and forwarding each one to the hub when attached.
type Stream struct {
	mu     sync.RWMutex
	hub    Broadcaster
	buf    []Entry
	next   int
	filled bool
}

// NewStream creates a stream buffering up to capacity entries.
func NewStream(capacity int) *Stream {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Stream{buf: make([]Entry, capacity)}
}

// SetHub attaches the broadcast hub. Safe to call after logging has started.
func (s *Stream) SetHub(hub Broadcaster) {
	s.mu.Lock()
	s.hub = hub
	s.mu.Unlock()
}

// Write receives JSON log lines from zerolog. Malformed lines are dropped
// silently so a logging hiccup never propagates as a write error.
func (s *Stream) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		return len(p), nil
	}

	s.mu.Lock()
	s.buf[s.next] = entry
	s.next++
	if s.next == len(s.buf) {
		s.next = 0
		s.filled = true
	}
	hub := s.hub
	s.mu.Unlock()

	if hub != nil {
		_ = hub.Broadcast("logs:entry", entry)
	}
	return len(p), nil
}

// Recent returns buffered entries, oldest first.
func (s *Stream) Recent() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.filled {
		out := make([]Entry, s.next)
		copy(out, s.buf[:s.next])
		return out
	}
	out := make([]Entry, 0, len(s.buf))
	out = append(out, s.buf[s.next:]...)
	out = append(out, s.buf[:s.next]...)
	return out
}

func parseEntry(data []byte) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, err
	}

	entry := Entry{Fields: make(map[string]any)}
	if ts, ok := raw["time"].(string); ok {
		entry.Timestamp = ts
		delete(raw, "time")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}
	if component, ok := raw["component"].(string); ok {
		entry.Component = component
		delete(raw, "component")
	}
	if msg, ok := raw["message"].(string); ok {
		entry.Message = msg
		delete(raw, "message")
	}
	for k, v := range raw {
		entry.Fields[k] = v
	}
	return entry, nil
}
