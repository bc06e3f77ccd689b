// Package history persists the set of already-processed article URLs so
// repeat runs skip them before any fetch work begins.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// FileStore keeps processed URLs in a single JSON file. Persist writes a
// temp file and renames it into place so a crash never leaves a partial
// file; a flock guards against two processes sharing one history file.
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewFileStore builds a store rooted at path. Load must be called before use.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{
		path:    path,
		lock:    flock.New(path + ".lock"),
		logger:  logger,
		entries: make(map[string]time.Time),
	}, nil
}

// Load acquires the file lock and reads the history file if it exists.
func (s *FileStore) Load(ctx context.Context) error {
	locked, err := s.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock history file: %w", err)
	}
	if !locked {
		return fmt.Errorf("history file %s is locked by another process", s.path)
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read history file: %w", err)
	}

	entries := make(map[string]time.Time)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode history file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.logger.Debug("history loaded", zap.String("path", s.path), zap.Int("entries", len(entries)))
	return nil
}

// Contains reports whether url was processed in a prior run.
func (s *FileStore) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[url]
	return ok
}

// Record adds or refreshes an entry. Idempotent: re-recording updates the
// timestamp, never duplicates.
func (s *FileStore) Record(_ context.Context, url string, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = processedAt.UTC()
	return nil
}

// Persist writes all entries via atomic write-replace.
func (s *FileStore) Persist(_ context.Context) error {
	s.mu.Lock()
	payload, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return fmt.Errorf("create history temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write history temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close history temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// Reset clears every entry and persists the empty set.
func (s *FileStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]time.Time)
	s.mu.Unlock()
	return s.Persist(ctx)
}

// Len reports the number of known entries.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the url to processed-at map.
func (s *FileStore) Entries() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Close releases the file lock.
func (s *FileStore) Close() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("unlock history file", zap.Error(err))
	}
}
