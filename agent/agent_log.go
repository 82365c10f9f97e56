package main

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"
)

// LogEntry is one line the agent logged
type LogEntry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
}

// String renders the entry as "2006-01-02 15:04:05 - component - LEVEL - message"
func (e LogEntry) String() string {
	return fmt.Sprintf("%s - %s - %s - %s", e.Time.Format("2006-01-02 15:04:05"), e.Component, e.Level, e.Message)
}

// LogRing keeps the most recent agent log lines in memory and fans new ones
// out to subscribers. It is meant to sit behind log.SetOutput.
type LogRing struct {
	mu          sync.RWMutex
	entries     []LogEntry
	next        int
	full        bool
	pending     []byte
	subscribers map[chan string]struct{}
	now         func() time.Time
}

// NewLogRing creates a ring holding up to capacity entries
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = 1000
	}
	return &LogRing{
		entries:     make([]LogEntry, capacity),
		subscribers: make(map[chan string]struct{}),
		now:         time.Now,
	}
}

// Write implements io.Writer. Partial lines are held until their newline arrives.
func (lr *LogRing) Write(p []byte) (int, error) {
	lr.mu.Lock()
	lr.pending = append(lr.pending, p...)
	var added []LogEntry
	for {
		idx := bytes.IndexByte(lr.pending, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(lr.pending[:idx]))
		lr.pending = lr.pending[idx+1:]
		if line == "" {
			continue
		}
		entry := parseLogLine(lr.now(), line)
		lr.entries[lr.next] = entry
		lr.next = (lr.next + 1) % len(lr.entries)
		if lr.next == 0 {
			lr.full = true
		}
		added = append(added, entry)
	}
	lr.mu.Unlock()

	if len(added) == 0 {
		return len(p), nil
	}

	// unsubscribe closes channels under the write lock, so sends happen under the read lock
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	for _, entry := range added {
		line := entry.String()
		for ch := range lr.subscribers {
			// slow subscribers miss lines rather than stall logging
			select {
			case ch <- line:
			default:
			}
		}
	}
	return len(p), nil
}

// Entries returns up to maxEntries lines, newest first. An empty level
// matches everything.
func (lr *LogRing) Entries(maxEntries int, level string) []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	level = strings.ToUpper(strings.TrimSpace(level))
	count := lr.next
	if lr.full {
		count = len(lr.entries)
	}

	out := make([]string, 0)
	for i := 0; i < count; i++ {
		if maxEntries > 0 && len(out) >= maxEntries {
			break
		}
		idx := (lr.next - 1 - i + len(lr.entries)) % len(lr.entries)
		entry := lr.entries[idx]
		if level != "" && entry.Level != level {
			continue
		}
		out = append(out, entry.String())
	}
	return out
}

// Subscribe registers for new lines. The returned func unsubscribes.
func (lr *LogRing) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	lr.mu.Lock()
	lr.subscribers[ch] = struct{}{}
	lr.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			lr.mu.Lock()
			delete(lr.subscribers, ch)
			lr.mu.Unlock()
			close(ch)
		})
	}
}

// stripStdPrefix removes the "2006/01/02 15:04:05 " prefix written by log.LstdFlags
func stripStdPrefix(line string, fallback time.Time) (string, time.Time) {
	const layout = "2006/01/02 15:04:05"
	if len(line) <= len(layout) || line[len(layout)] != ' ' {
		return line, fallback
	}
	at, err := time.ParseInLocation(layout, line[:len(layout)], time.Local)
	if err != nil {
		return line, fallback
	}
	return line[len(layout)+1:], at
}

// parseLogLine splits "Component: message" and guesses the level from the text
func parseLogLine(at time.Time, line string) LogEntry {
	line, at = stripStdPrefix(line, at)
	entry := LogEntry{Time: at, Component: "agent", Level: "INFO", Message: line}

	if idx := strings.Index(line, ": "); idx > 0 && !strings.ContainsAny(line[:idx], " \t") {
		entry.Component = line[:idx]
		entry.Message = line[idx+2:]
	}

	lower := strings.ToLower(entry.Message)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		entry.Level = "ERROR"
	case strings.Contains(lower, "warning"):
		entry.Level = "WARNING"
	}
	return entry
}
