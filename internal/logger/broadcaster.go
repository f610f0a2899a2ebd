package logger

import (
	"encoding/json"
	"sync"
)

const defaultBufferSize = 1000

// Broadcaster pushes messages to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// LogEntry is a parsed log line as exposed over the API.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogStream is an io.Writer fed by zerolog's JSON output. It keeps the most
// recent entries and forwards each one to the hub when one is attached.
type LogStream struct {
	buffer *RingBuffer[LogEntry]

	mu  sync.RWMutex
	hub Broadcaster
}

// NewLogStream creates a stream retaining bufferSize entries.
func NewLogStream(bufferSize int) *LogStream {
	return &LogStream{buffer: NewRingBuffer[LogEntry](bufferSize)}
}

// SetHub attaches the broadcaster. A nil hub stops forwarding.
func (s *LogStream) SetHub(hub Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = hub
}

// Write implements io.Writer.
func (s *LogStream) Write(p []byte) (int, error) {
	entry, ok := parseEntry(p)
	if !ok {
		return len(p), nil
	}

	s.buffer.Push(entry)

	s.mu.RLock()
	hub := s.hub
	s.mu.RUnlock()

	if hub != nil {
		_ = hub.Broadcast("logs:entry", entry)
	}
	return len(p), nil
}

// Recent returns up to n buffered entries, oldest first.
func (s *LogStream) Recent(n int) []LogEntry {
	return s.buffer.Last(n)
}

func parseEntry(data []byte) (LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, false
	}

	entry := LogEntry{
		Timestamp: takeString(raw, "time"),
		Level:     takeString(raw, "level"),
		Component: takeString(raw, "component"),
		Message:   takeString(raw, "message"),
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}

func takeString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	delete(m, key)
	return v
}
