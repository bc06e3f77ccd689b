package note

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FSSink writes notes into a destination directory. Filename collisions are
// resolved against a process-wide set of names claimed in the current run as
// well as files already on disk, so concurrent writers never clobber each
// other.
type FSSink struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewFSSink returns a sink rooted at dir, creating it if needed.
func NewFSSink(dir string, logger *zap.Logger) (*FSSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create notes dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSSink{
		dir:     dir,
		logger:  logger,
		claimed: make(map[string]struct{}),
	}, nil
}

// Write stores the document under base.md, appending a disambiguating
// suffix when the name is already taken. It returns the final note name.
func (s *FSSink) Write(ctx context.Context, base string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("note write canceled: %w", err)
	}
	name, err := s.claim(base)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".note-*")
	if err != nil {
		return "", fmt.Errorf("create note temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write note %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close note %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("place note %s: %w", name, err)
	}

	s.logger.Debug("note written", zap.String("name", name), zap.Int("bytes", len(data)))
	return name, nil
}

func (s *FSSink) claim(base string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 1; ; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d", base, i)
		}
		name := candidate + ".md"
		if _, taken := s.claimed[name]; taken {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("probe note name %s: %w", name, err)
		}
		s.claimed[name] = struct{}{}
		return name, nil
	}
}
