package pipeline

import (
	"context"
	"time"
)

// Strategy is a single content extraction tier. Attempt returns the
// extracted text or an error; quality gating (minimum length) belongs to the
// caller iterating the chain, and retries belong to the orchestrator.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, url string) (string, error)
}

// Fetcher resolves a URL to extracted article text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Summarizer produces a bullet summary and suggested tags for fetched content.
type Summarizer interface {
	Summarize(ctx context.Context, content string, item ArticleItem) (SummaryResult, error)
}

// History persists the set of already-processed (normalized) URLs. Record is
// idempotent: re-recording a URL updates its timestamp, never duplicates.
type History interface {
	Contains(url string) bool
	Record(ctx context.Context, url string, processedAt time.Time) error
	Load(ctx context.Context) error
	Persist(ctx context.Context) error
	Reset(ctx context.Context) error
	Close()
}

// NoteSink writes a finished note document. Write resolves filename
// collisions against names already claimed in the current run and returns
// the final note name.
type NoteSink interface {
	Write(ctx context.Context, base string, data []byte) (string, error)
}

// Publisher pushes note-created events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, event NoteEvent) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
