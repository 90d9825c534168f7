package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jwebster45206/critfumble/pkg/storage"
)

// DefaultLogFile is the event log file name inside the log directory.
const DefaultLogFile = "narrative_dice_log.jsonl"

// FileStore is an EventLog backed by a newline-delimited JSON file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// Ensure FileStore implements EventLog interface
var _ storage.EventLog = (*FileStore)(nil)

// NewFileStore prepares dir for writing and returns a store appending to
// dir/file. When dir cannot be created, fallbackDir is used instead.
func NewFileStore(dir, fallbackDir, file string, logger *slog.Logger) (*FileStore, error) {
	if file == "" {
		file = DefaultLogFile
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		if fallbackDir == "" {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		logger.Warn("Log directory unavailable, using fallback", "dir", dir, "fallback", fallbackDir, "error", err)
		if err := os.MkdirAll(fallbackDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create fallback log directory %s: %w", fallbackDir, err)
		}
		dir = fallbackDir
	}

	path := filepath.Join(dir, file)
	logger.Info("Event log ready", "path", path)
	return &FileStore{path: path, logger: logger}, nil
}

// Path returns the log file location.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes entry as a single line with one write call.
func (s *FileStore) Append(ctx context.Context, entry storage.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write event log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close event log: %w", err)
	}
	return nil
}

// Recent reads the whole log and returns the newest limit items. Lines that
// fail to decode are skipped.
func (s *FileStore) Recent(ctx context.Context, limit int) ([]storage.HistoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []storage.HistoryItem{}, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var (
		entries []storage.LogEntry
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry storage.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil || entry.Narrative == "" {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn("Skipped unreadable event log lines", "count", skipped)
	}

	return storage.History(entries, limit), nil
}
