// Package fetch resolves article URLs to extracted text using an ordered
// fallback chain of extraction strategies.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clipfeed/notepress/internal/metrics"
	"github.com/clipfeed/notepress/internal/pipeline"
)

// ErrExhausted reports that every enabled tier failed or returned
// below-threshold content.
var ErrExhausted = errors.New("all fetch tiers exhausted")

// Config controls chain-wide quality gating.
type Config struct {
	// MinContentChars guards against boilerplate-only pages: shorter
	// extractions count as tier failures.
	MinContentChars int
}

// Fetcher iterates extraction strategies in order until one yields content
// of acceptable length. New tiers are added by appending to the chain.
// Stateless per call; retries belong to the orchestrator.
type Fetcher struct {
	cfg        Config
	strategies []pipeline.Strategy
	logger     *zap.Logger
}

// New builds a Fetcher over the given strategies, tried in order.
func New(cfg Config, logger *zap.Logger, strategies ...pipeline.Strategy) *Fetcher {
	if cfg.MinContentChars <= 0 {
		cfg.MinContentChars = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:        cfg,
		strategies: strategies,
		logger:     logger,
	}
}

// Fetch tries each tier once, in order. No tier is retried within a single
// call.
func (f *Fetcher) Fetch(ctx context.Context, url string) (pipeline.FetchResult, error) {
	var tierErrs []string
	for _, strategy := range f.strategies {
		if err := ctx.Err(); err != nil {
			return pipeline.FetchResult{}, fmt.Errorf("fetch canceled: %w", err)
		}

		content, err := strategy.Attempt(ctx, url)
		if err != nil {
			metrics.ObserveTierAttempt(strategy.Name(), "error")
			f.logger.Debug("fetch tier failed",
				zap.String("tier", strategy.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			tierErrs = append(tierErrs, fmt.Sprintf("%s: %v", strategy.Name(), err))
			continue
		}
		content = strings.TrimSpace(content)
		if len(content) < f.cfg.MinContentChars {
			metrics.ObserveTierAttempt(strategy.Name(), "short")
			f.logger.Debug("fetch tier returned below-threshold content",
				zap.String("tier", strategy.Name()),
				zap.String("url", url),
				zap.Int("chars", len(content)),
			)
			tierErrs = append(tierErrs, fmt.Sprintf("%s: content too short (%d chars)", strategy.Name(), len(content)))
			continue
		}

		metrics.ObserveTierAttempt(strategy.Name(), "success")
		return pipeline.FetchResult{
			Content:   content,
			Method:    strategy.Name(),
			CharCount: len(content),
		}, nil
	}

	if len(tierErrs) == 0 {
		return pipeline.FetchResult{}, fmt.Errorf("%w: no tiers enabled", ErrExhausted)
	}
	return pipeline.FetchResult{}, fmt.Errorf("%w: %s", ErrExhausted, strings.Join(tierErrs, "; "))
}
