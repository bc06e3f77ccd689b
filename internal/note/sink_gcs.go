package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSSink writes notes as objects into a Cloud Storage bucket, for
// deployments where the vault syncs from a bucket rather than a local
// directory. Same collision discipline as FSSink.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewGCSSink creates a sink and verifies the bucket is reachable up front.
// Authentication uses Application Default Credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string, logger *zap.Logger) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close storage client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSSink{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		logger:  logger,
		claimed: make(map[string]struct{}),
	}, nil
}

// Write uploads the document under <prefix>/<base>.md, appending a
// disambiguating suffix when the object already exists.
func (s *GCSSink) Write(ctx context.Context, base string, data []byte) (string, error) {
	name, err := s.claim(ctx, base)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(s.objectPath(name)).NewWriter(ctx)
	w.ContentType = "text/markdown; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			s.logger.Warn("close object writer after write failure", zap.Error(closeErr))
		}
		return "", fmt.Errorf("write note object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize note object %s: %w", name, err)
	}

	s.logger.Debug("note uploaded", zap.String("name", name), zap.String("bucket", s.bucket))
	return name, nil
}

// Close releases the storage client.
func (s *GCSSink) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}
	return nil
}

func (s *GCSSink) claim(ctx context.Context, base string) (string, error) {
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
		_, err := s.client.Bucket(s.bucket).Object(s.objectPath(name)).Attrs(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("probe note object %s: %w", name, err)
		}
		s.claimed[name] = struct{}{}
		return name, nil
	}
}

func (s *GCSSink) objectPath(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}
