// Package orchestrator runs the article pipeline end to end: dedup against
// history, bounded-concurrency fan-out, fetch, summarize, render, write, and
// a run summary at the end.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipfeed/notepress/internal/metrics"
	"github.com/clipfeed/notepress/internal/note"
	"github.com/clipfeed/notepress/internal/pipeline"
)

const defaultConcurrency = 3

// Config controls Orchestrator behavior.
type Config struct {
	// Concurrency bounds the number of items processed at once.
	Concurrency int
	// MaxItems truncates the run to the first N unseen items. Zero means
	// no limit.
	MaxItems int
}

// Orchestrator wires the pipeline stages together and owns the run loop.
type Orchestrator struct {
	fetcher    pipeline.Fetcher
	summarizer pipeline.Summarizer
	history    pipeline.History
	sink       pipeline.NoteSink
	publisher  pipeline.Publisher
	clock      pipeline.Clock
	cfg        Config
	logger     *zap.Logger
}

// New constructs an Orchestrator. The publisher may be nil when no event
// topic is configured.
func New(
	fetcher pipeline.Fetcher,
	summarizer pipeline.Summarizer,
	history pipeline.History,
	sink pipeline.NoteSink,
	publisher pipeline.Publisher,
	clock pipeline.Clock,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if clock == nil {
		clock = pipeline.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:    fetcher,
		summarizer: summarizer,
		history:    history,
		sink:       sink,
		publisher:  publisher,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run processes the batch and returns the run summary. Individual item
// failures are recorded in the summary and never abort the run; Run itself
// errors only when history cannot be loaded.
func (o *Orchestrator) Run(ctx context.Context, items []pipeline.ArticleItem) (pipeline.RunSummary, error) {
	summary := pipeline.RunSummary{
		RunID:   uuid.NewString(),
		Total:   len(items),
		Started: o.clock.Now(),
	}
	logger := o.logger.With(zap.String("run_id", summary.RunID))

	if err := o.history.Load(ctx); err != nil {
		return summary, fmt.Errorf("load history: %w", err)
	}

	pending := make([]pipeline.ArticleItem, 0, len(items))
	for _, item := range items {
		key, err := pipeline.NormalizeURL(item.URL)
		if err != nil {
			logger.Warn("skipping item with unparseable url",
				zap.String("url", item.URL), zap.Error(err))
			summary.Skipped++
			continue
		}
		if o.history.Contains(key) {
			logger.Debug("already processed", zap.String("url", item.URL))
			summary.Skipped++
			continue
		}
		pending = append(pending, item)
	}
	if o.cfg.MaxItems > 0 && len(pending) > o.cfg.MaxItems {
		logger.Info("truncating run",
			zap.Int("pending", len(pending)), zap.Int("max_items", o.cfg.MaxItems))
		pending = pending[:o.cfg.MaxItems]
	}

	logger.Info("run starting",
		zap.Int("total", summary.Total),
		zap.Int("skipped", summary.Skipped),
		zap.Int("pending", len(pending)),
		zap.Int("concurrency", o.cfg.Concurrency))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.cfg.Concurrency)
	)
	for _, item := range pending {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			summary.Finished = o.clock.Now()
			return summary, ctx.Err()
		}
		wg.Add(1)
		go func(item pipeline.ArticleItem) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := o.processItem(ctx, summary.RunID, item, logger)

			mu.Lock()
			defer mu.Unlock()
			summary.Outcomes = append(summary.Outcomes, outcome)
			switch outcome.Status {
			case pipeline.StatusCompleted:
				summary.Fetched++
				summary.Summarized++
			case pipeline.StatusSummarizeFailed:
				summary.Fetched++
			}
			if outcome.NoteName != "" {
				summary.Created++
			} else {
				summary.Failed++
			}
		}(item)
	}
	wg.Wait()

	if err := o.history.Persist(ctx); err != nil {
		logger.Error("persist history", zap.Error(err))
	}

	summary.Finished = o.clock.Now()
	logger.Info("run finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("summarized", summary.Summarized),
		zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary, nil
}

// processItem runs one article through the pipeline. A panic in any stage is
// contained here so a single bad item cannot take down the run.
func (o *Orchestrator) processItem(ctx context.Context, runID string, item pipeline.ArticleItem, logger *zap.Logger) (outcome pipeline.Outcome) {
	outcome = pipeline.Outcome{URL: item.URL, Title: item.Title}
	logger = logger.With(zap.String("url", item.URL))

	metrics.UnitStarted()
	start := o.clock.Now()
	defer func() {
		metrics.UnitFinished(o.clock.Now().Sub(start))
		if r := recover(); r != nil {
			logger.Error("item processing panicked", zap.Any("panic", r))
			outcome.Status = pipeline.StatusFetchedFailed
			outcome.ErrorText = fmt.Sprintf("panic: %v", r)
		}
		metrics.ObserveItem(string(outcome.Status))
	}()

	article := pipeline.ProcessedArticle{Item: item, ProcessedAt: o.clock.Now()}

	fetched, err := o.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		logger.Warn("fetch failed", zap.Error(err))
		outcome.Status = pipeline.StatusFetchedFailed
		outcome.ErrorText = err.Error()
		return outcome
	}
	article.Fetch = fetched
	logger.Debug("content fetched",
		zap.String("method", fetched.Method), zap.Int("chars", fetched.CharCount))

	summarized, err := o.summarizer.Summarize(ctx, fetched.Content, item)
	if err != nil {
		logger.Warn("summarization failed", zap.Error(err))
		outcome.Status = pipeline.StatusSummarizeFailed
		outcome.ErrorText = err.Error()
		return outcome
	}
	article.Summary = summarized
	article.Tags = pipeline.MergeTags(item.MatchedKeywords, summarized.SuggestedTags)
	article.Status = pipeline.StatusCompleted
	outcome.Status = pipeline.StatusCompleted

	now := o.clock.Now()
	doc := note.Render(article, now)
	name, err := o.sink.Write(ctx, note.Slug(item.Title), []byte(doc))
	if err != nil {
		logger.Error("note write failed", zap.Error(err))
		outcome.ErrorText = err.Error()
		return outcome
	}
	outcome.NoteName = name

	key, err := pipeline.NormalizeURL(item.URL)
	if err == nil {
		if err := o.history.Record(ctx, key, now); err != nil {
			logger.Error("record history", zap.Error(err))
		}
	}

	if o.publisher != nil {
		event := pipeline.NoteEvent{
			RunID:     runID,
			URL:       item.URL,
			NoteName:  name,
			Tags:      article.Tags,
			CreatedAt: now,
		}
		if err := o.publisher.Publish(ctx, event); err != nil {
			logger.Warn("publish note event", zap.Error(err))
		}
	}

	logger.Info("note created", zap.String("note", name), zap.Strings("tags", article.Tags))
	return outcome
}
