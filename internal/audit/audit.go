// Package audit keeps the operator-facing event history: newest first,
// never mutated, bounded by a retention cap.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beemnet-bee/viplayer/internal/model"
)

// DefaultMaxEntries bounds the log when no cap is configured.
const DefaultMaxEntries = 500

// Log is a prepend-newest audit log with a retention cap.
type Log struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	max     int
}

// New creates a Log holding at most max entries, seeded with the system
// bootstrap records.
func New(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	l := &Log{max: max}
	l.Record("System Node Initialized", "Kernel", model.AuditInfo)
	l.Record("Identity Protocol Loaded", "Auth_Agent", model.AuditSuccess)
	return l
}

// Record prepends a new entry, evicting the oldest when over the cap.
func (l *Log) Record(event, user string, status model.AuditStatus) model.AuditEntry {
	entry := model.AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Event:     event,
		User:      user,
		Status:    status,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]model.AuditEntry{entry}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	return entry
}

// Entries returns a snapshot copy, newest first.
func (l *Log) Entries() []model.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filter returns the entries matching status, newest first. An empty status
// returns everything.
func (l *Log) Filter(status model.AuditStatus) []model.AuditEntry {
	if status == "" {
		return l.Entries()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.AuditEntry
	for _, e := range l.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}
