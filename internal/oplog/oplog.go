// Package oplog is the append-only log shown to the operator.
package oplog

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Level marks an entry as narration or as an error.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Entry is one line of the operator log.
type Entry struct {
	Time  time.Time `yaml:"time"`
	Level Level     `yaml:"level"`
	Text  string    `yaml:"text"`
}

// Log collects entries in arrival order. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func New() *Log {
	return &Log{now: time.Now}
}

// Info appends narration. Multi-line text is kept as one entry.
func (l *Log) Info(text string) {
	l.append(LevelInfo, text)
}

// Lines appends each line as its own narration entry.
func (l *Log) Lines(lines []string) {
	for _, line := range lines {
		l.append(LevelInfo, line)
	}
}

// Error appends an error entry.
func (l *Log) Error(text string) {
	l.append(LevelError, text)
}

func (l *Log) append(level Level, text string) {
	text = strings.TrimRight(text, "\n")
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Time: l.now(), Level: level, Text: text})
	l.mu.Unlock()
	// Mirrored to the debug log, which is discarded unless a file is configured.
	log.Printf("[%s] %s", level, text)
}

// Entries returns a copy of every entry so far.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Since returns entries appended at or after index i.
func (l *Log) Since(i int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 {
		i = 0
	}
	if i >= len(l.entries) {
		return nil
	}
	out := make([]Entry, len(l.entries)-i)
	copy(out, l.entries[i:])
	return out
}
