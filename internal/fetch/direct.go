package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

// DirectConfig controls the tier-1 collector.
type DirectConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DirectStrategy is extraction tier 1: a plain HTTP GET via Colly followed
// by structural (readability) extraction of the article body.
type DirectStrategy struct {
	cfg           DirectConfig
	baseCollector *colly.Collector
}

// NewDirect builds the tier-1 strategy.
func NewDirect(cfg DirectConfig) *DirectStrategy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &DirectStrategy{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Name identifies the tier in fetch results and metrics.
func (s *DirectStrategy) Name() string { return "direct" }

// Attempt fetches the page and extracts the readable article text.
func (s *DirectStrategy) Attempt(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	body, err := s.download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", fmt.Errorf("readability extract: %w", err)
	}
	return article.TextContent, nil
}

func (s *DirectStrategy) download(ctx context.Context, rawURL string) ([]byte, error) {
	collector := s.baseCollector.Clone()
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(s.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("direct fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("direct visit failed: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("direct response failed: %w", fetchErr)
		}
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("direct fetch returned empty body")
	}
	return body, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
