// Package summarize wraps the external AI completion service used to turn
// article text into bullet summaries and suggested tags.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clipfeed/notepress/internal/metrics"
	"github.com/clipfeed/notepress/internal/pipeline"
)

// ErrPermanent marks rejections that must not be retried (malformed request,
// permanent refusal, empty input).
var ErrPermanent = errors.New("summarization rejected permanently")

const systemPrompt = "You summarize web articles into concise bullet points and suggest topical tags."

const promptTemplate = `Provide a bullet point summary of the page, including key themes and interesting observations. Suggest one or more relevant tags and list them in the format #{tag}. For example, #legal, #AI, #neuraltech, #artificial-intelligence, #data-protection, #brain-computer-interface, #quantum-computing

Article Title: %s
Article URL: %s
Article Content:
%s`

// Config controls the summarization client.
type Config struct {
	APIKey            string
	Model             string
	MaxTokens         int64
	MaxContentChars   int
	RequestsPerSecond float64
	MaxRetries        int
	BackoffBase       time.Duration
}

// Client sends summarization requests with a shared rate limiter and a
// retry policy for transient failures. Backoff delays only the failing task.
type Client struct {
	api     openai.Client
	cfg     Config
	limiter *rate.Limiter
	policy  *pipeline.ExponentialRetryPolicy
	logger  *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Client. Extra request options (base URL overrides and the
// like) are appended after the credential.
func New(cfg Config, logger *zap.Logger, opts ...option.RequestOption) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 15000
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// The SDK retries 429/5xx on its own by default; retry ownership stays
	// with our policy so the documented backoff schedule holds.
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &Client{
		api:     openai.NewClient(clientOpts...),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		policy:  pipeline.NewExponentialRetryPolicy(cfg.MaxRetries, cfg.BackoffBase, 2, isTransient),
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Summarize sends one prompt per attempt and parses the structured response.
// Transient failures (rate limits, 5xx, transport errors) are retried with
// exponential backoff; permanent rejections fail immediately.
func (c *Client) Summarize(ctx context.Context, content string, item pipeline.ArticleItem) (pipeline.SummaryResult, error) {
	if strings.TrimSpace(content) == "" {
		return pipeline.SummaryResult{}, fmt.Errorf("%w: empty content", ErrPermanent)
	}
	prompt := c.buildPrompt(item, content)

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return pipeline.SummaryResult{}, fmt.Errorf("summarize rate wait: %w", err)
		}

		text, err := c.complete(ctx, prompt)
		if err == nil {
			return ParseResponse(text)
		}

		if !c.policy.ShouldRetry(err, attempt) {
			if isTransient(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return pipeline.SummaryResult{}, fmt.Errorf("summarize failed after %d attempts: %w", attempt+1, err)
			}
			return pipeline.SummaryResult{}, fmt.Errorf("%w: %v", ErrPermanent, err)
		}

		delay := c.policy.Backoff(attempt)
		metrics.AddSummarizeRetry()
		c.logger.Warn("transient summarization failure, backing off",
			zap.String("url", item.URL),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.policy.MaxRetries()),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return pipeline.SummaryResult{}, fmt.Errorf("summarize backoff: %w", err)
		}
	}
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) buildPrompt(item pipeline.ArticleItem, content string) string {
	if len(content) > c.cfg.MaxContentChars {
		content = content[:c.cfg.MaxContentChars] + "\n\n[Content truncated...]"
	}
	return fmt.Sprintf(promptTemplate, item.Title, item.URL, content)
}

// isTransient classifies service errors: rate limits and server-side
// failures are retryable, other API rejections are not. Transport-level
// errors without an API status are treated as transient.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
