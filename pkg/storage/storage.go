package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/critfumble/pkg/narrative"
	"github.com/jwebster45206/critfumble/pkg/roll"
)

// MaxHistory is the most history items a single read returns.
const MaxHistory = 50

// LogEntry is one line of the event log.
type LogEntry struct {
	ID        uuid.UUID          `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Narrative string             `json:"narrative"`
	Location  narrative.Location `json:"location"`
	Request   roll.Request       `json:"request"`
	Result    *roll.Result       `json:"result,omitempty"`
}

// HistoryItem is the public projection of a LogEntry.
type HistoryItem struct {
	Timestamp time.Time `json:"timestamp"`
	Narrative string    `json:"narrative"`
}

// NewLogEntry stamps a new entry with an ID and the current UTC time.
func NewLogEntry(sentence string, loc narrative.Location, req roll.Request, res *roll.Result) LogEntry {
	return LogEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Narrative: sentence,
		Location:  loc,
		Request:   req,
		Result:    res,
	}
}

// EventLog is an append-only record of successful rolls.
type EventLog interface {
	// Append writes one entry. Concurrent appends never interleave.
	Append(ctx context.Context, entry LogEntry) error

	// Recent returns up to limit items, newest first. limit is clamped to
	// [1, MaxHistory]; a store with no entries returns an empty slice.
	Recent(ctx context.Context, limit int) ([]HistoryItem, error)
}

// ClampLimit bounds a requested history size.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistory {
		return MaxHistory
	}
	return limit
}

// History projects entries (oldest first) into at most limit items, newest first.
func History(entries []LogEntry, limit int) []HistoryItem {
	limit = ClampLimit(limit)
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	items := make([]HistoryItem, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		items = append(items, HistoryItem{Timestamp: entries[i].Timestamp, Narrative: entries[i].Narrative})
	}
	return items
}
