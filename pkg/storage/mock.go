package storage

import (
	"context"
	"sync"
)

// MockEventLog is an in-memory EventLog for testing
type MockEventLog struct {
	mu        sync.RWMutex
	entries   []LogEntry
	appendErr error
	recentErr error
}

// Ensure MockEventLog implements EventLog interface
var _ EventLog = (*MockEventLog)(nil)

// NewMockEventLog creates a new mock event log
func NewMockEventLog() *MockEventLog {
	return &MockEventLog{}
}

// SetAppendError makes every Append fail with err
func (m *MockEventLog) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendErr = err
}

// SetRecentError makes every Recent fail with err
func (m *MockEventLog) SetRecentError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recentErr = err
}

func (m *MockEventLog) Append(ctx context.Context, entry LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEventLog) Recent(ctx context.Context, limit int) ([]HistoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return History(m.entries, limit), nil
}

// Entries returns a copy of everything appended so far
func (m *MockEventLog) Entries() []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]LogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
