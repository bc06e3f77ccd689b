package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ReaderConfig controls the tier-2 reader proxy client.
type ReaderConfig struct {
	// Endpoint is the reader service base URL, e.g. https://r.jina.ai.
	// The target article URL is appended as the request path.
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// ReaderStrategy is extraction tier 2: a remote reader proxy that renders
// JavaScript-heavy pages server-side and returns cleaned text.
type ReaderStrategy struct {
	cfg    ReaderConfig
	client *http.Client
}

// NewReader builds the tier-2 strategy.
func NewReader(cfg ReaderConfig) *ReaderStrategy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ReaderStrategy{
		cfg: cfg,
		client: &http.Client{
			Transport: newHTTPTransport(),
			Timeout:   cfg.Timeout,
		},
	}
}

// Name identifies the tier in fetch results and metrics.
func (s *ReaderStrategy) Name() string { return "reader" }

// Attempt requests the cleaned article text from the reader service.
func (s *ReaderStrategy) Attempt(ctx context.Context, rawURL string) (string, error) {
	target := strings.TrimRight(s.cfg.Endpoint, "/") + "/" + rawURL

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build reader request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read reader response: %w", err)
	}
	return string(body), nil
}
