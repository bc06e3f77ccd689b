package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipfeed/notepress/internal/api"
	"github.com/clipfeed/notepress/internal/events"
	"github.com/clipfeed/notepress/internal/fetch"
	"github.com/clipfeed/notepress/internal/history"
	"github.com/clipfeed/notepress/internal/note"
	"github.com/clipfeed/notepress/internal/orchestrator"
	"github.com/clipfeed/notepress/internal/pipeline"
	"github.com/clipfeed/notepress/internal/summarize"
)

var limitFlag int

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <items.json>",
		Short: "Process a batch of article links into notes",
		Long: `Reads an items file (a JSON array of article links, or an object with
an "items" array), filters out URLs processed in earlier runs, and pushes
the rest through the fetch, summarize, and render pipeline. Prints the run
summary as JSON when done.`,
		Args: cobra.ExactArgs(1),
		RunE: runProcessCommand,
	}
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "process at most N unseen items (0 = config default)")
	return cmd
}

func runProcessCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open items file: %w", err)
	}
	items, err := pipeline.ParseItems(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("parse items file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close items file: %w", closeErr)
	}

	fetcher, headless, err := buildFetcher()
	if err != nil {
		return err
	}
	if headless != nil {
		defer headless.Close()
	}

	summarizer := summarize.New(summarize.Config{
		APIKey:            cfg.AI.APIKey,
		Model:             cfg.AI.Model,
		MaxTokens:         int64(cfg.AI.MaxTokens),
		MaxContentChars:   cfg.AI.MaxContentChars,
		RequestsPerSecond: cfg.AI.RequestsPerSecond,
		MaxRetries:        cfg.AI.MaxRetries,
		BackoffBase:       cfg.BackoffBase(),
	}, logger)

	hist, err := buildHistory(ctx)
	if err != nil {
		return err
	}
	defer hist.Close()

	sink, cleanup, err := buildSink(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var publisher pipeline.Publisher
	if cfg.Events.Enabled {
		ps, err := events.NewPubSubPublisher(ctx, cfg.Events.ProjectID, cfg.Events.TopicName, logger)
		if err != nil {
			return fmt.Errorf("init event publisher: %w", err)
		}
		defer func() {
			if cerr := ps.Close(); cerr != nil {
				logger.Warn("close event publisher", zap.Error(cerr))
			}
		}()
		publisher = ps
	}

	statusServer, stopServer := startStatusServer()
	defer stopServer()

	maxItems := cfg.Processing.MaxItems
	if limitFlag > 0 {
		maxItems = limitFlag
	}

	o := orchestrator.New(
		fetcher,
		summarizer,
		hist,
		sink,
		publisher,
		pipeline.SystemClock{},
		orchestrator.Config{
			Concurrency: cfg.Processing.Concurrency,
			MaxItems:    maxItems,
		},
		logger,
	)

	summary, err := o.Run(ctx, items)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	if statusServer != nil {
		statusServer.SetLatest(summary)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func buildFetcher() (*fetch.Fetcher, *fetch.HeadlessStrategy, error) {
	strategies := []pipeline.Strategy{
		fetch.NewDirect(fetch.DirectConfig{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.FetchTimeout(),
		}),
	}
	if cfg.Fetch.Reader.Enabled {
		strategies = append(strategies, fetch.NewReader(fetch.ReaderConfig{
			Endpoint:  cfg.Fetch.Reader.Endpoint,
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.FetchTimeout(),
		}))
	}
	var headless *fetch.HeadlessStrategy
	if cfg.Fetch.Headless.Enabled {
		var err error
		headless, err = fetch.NewHeadless(fetch.HeadlessConfig{
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Fetch.Headless.NavTimeoutSec) * time.Second,
			MaxParallel:       cfg.Fetch.Headless.MaxParallel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init headless tier: %w", err)
		}
		strategies = append(strategies, headless)
	}

	fetcher := fetch.New(fetch.Config{MinContentChars: cfg.Fetch.MinContentChars}, logger, strategies...)
	return fetcher, headless, nil
}

func buildHistory(ctx context.Context) (pipeline.History, error) {
	switch cfg.History.Backend {
	case "postgres":
		store, err := history.NewPostgresStore(ctx, history.PostgresConfig{
			DSN:   cfg.History.DSN,
			Table: cfg.History.Table,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init postgres history: %w", err)
		}
		return store, nil
	default:
		store, err := history.NewFileStore(cfg.History.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("init file history: %w", err)
		}
		return store, nil
	}
}

func buildSink(ctx context.Context) (pipeline.NoteSink, func(), error) {
	if cfg.Notes.GCSBucket != "" {
		sink, err := note.NewGCSSink(ctx, cfg.Notes.GCSBucket, cfg.Notes.GCSPrefix, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs sink: %w", err)
		}
		cleanup := func() {
			if cerr := sink.Close(); cerr != nil {
				logger.Warn("close gcs sink", zap.Error(cerr))
			}
		}
		return sink, cleanup, nil
	}
	sink, err := note.NewFSSink(cfg.Notes.Dir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init notes dir: %w", err)
	}
	return sink, func() {}, nil
}

// startStatusServer starts the health/metrics server when enabled. The
// returned stop func is safe to call either way.
func startStatusServer() (*api.Server, func()) {
	if !cfg.Server.Enabled {
		return nil, func() {}
	}
	statusServer := api.NewServer(logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           statusServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()
	logger.Info("status server listening", zap.Int("port", cfg.Server.Port))

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown", zap.Error(err))
		}
	}
	return statusServer, stop
}
