package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// HeadlessConfig controls the tier-3 browser automation strategy.
type HeadlessConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	MaxParallel       int
}

// HeadlessStrategy is extraction tier 3: full browser automation via
// chromedp. It is constructed only when enabled by configuration.
type HeadlessStrategy struct {
	cfg         HeadlessConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadless creates the tier-3 strategy backed by a shared Chrome
// allocator. Close must be called when the strategy is no longer needed.
func NewHeadless(cfg HeadlessConfig) (*HeadlessStrategy, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &HeadlessStrategy{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (s *HeadlessStrategy) Close() {
	s.allocCancel()
}

// Name identifies the tier in fetch results and metrics.
func (s *HeadlessStrategy) Name() string { return "headless" }

// Attempt renders the page in a headless browser and extracts the visible
// article text from the final DOM.
func (s *HeadlessStrategy) Attempt(ctx context.Context, rawURL string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()

	taskCtx, taskCancel := chromedp.NewContext(s.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, s.cfg.NavigationTimeout)
	defer cancel()

	html, err := s.render(taskCtx, rawURL)
	if err != nil {
		return "", err
	}
	return extractDOMText(html)
}

func (s *HeadlessStrategy) render(ctx context.Context, rawURL string) (string, error) {
	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if s.cfg.UserAgent != "" {
		actions = append([]chromedp.Action{
			emulation.SetUserAgentOverride(s.cfg.UserAgent),
		}, actions...)
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}

func (s *HeadlessStrategy) acquire(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	select {
	case s.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (s *HeadlessStrategy) release() {
	if s.limiter == nil {
		return
	}
	select {
	case <-s.limiter:
	default:
	}
}

var whitespaceRun = regexp.MustCompile(`[ \t]+`)

// extractDOMText pulls the readable text out of a rendered document,
// preferring an <article> element over the whole body.
func extractDOMText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse rendered dom: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	var lines []string
	for _, raw := range strings.Split(root.Text(), "\n") {
		line := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
