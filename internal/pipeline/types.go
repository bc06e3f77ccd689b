// Package pipeline defines core types shared across the article processing
// subsystems.
package pipeline

import "time"

// Status represents the terminal processing state of a single article.
type Status string

// Status values recorded per processed article.
const (
	StatusFetchedFailed   Status = "fetched_failed"
	StatusSummarizeFailed Status = "summarize_failed"
	StatusCompleted       Status = "completed"
)

// ArticleItem is one input record produced by the upstream feed filter.
type ArticleItem struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	FeedSource      string   `json:"feed_source"`
	Published       string   `json:"published,omitempty"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// FetchResult carries the extracted article text and which tier produced it.
type FetchResult struct {
	Content   string
	Method    string
	CharCount int
}

// SummaryResult is the parsed output of one summarization call.
type SummaryResult struct {
	BulletPoints  []string
	SuggestedTags []string
}

// ProcessedArticle composes an item with everything produced for it. It is
// the unit handed to the note renderer.
type ProcessedArticle struct {
	Item        ArticleItem
	Fetch       FetchResult
	Summary     SummaryResult
	Tags        []string
	Status      Status
	ErrorText   string
	ProcessedAt time.Time
}

// Outcome records the terminal state of one unit of work for the run summary.
type Outcome struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	NoteName  string `json:"note_name,omitempty"`
	ErrorText string `json:"error_text,omitempty"`
}

// RunSummary aggregates per-item outcomes for one batch run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Skipped    int       `json:"skipped"`
	Fetched    int       `json:"fetched"`
	Summarized int       `json:"summarized"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
}

// NoteEvent is published after a note has been written successfully.
type NoteEvent struct {
	RunID     string    `json:"run_id"`
	URL       string    `json:"url"`
	NoteName  string    `json:"note_name"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}
