// Package note renders processed articles into front-matter note documents
// and writes them to a destination sink.
package note

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/clipfeed/notepress/internal/pipeline"
)

const maxSlugLength = 100

var (
	slugSpecials   = regexp.MustCompile(`[^\w\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// Render produces the canonical note document for a processed article:
// front matter, AI summary, original content, and a review trailer. Pure and
// deterministic for a fixed now.
func Render(a pipeline.ProcessedArticle, now time.Time) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", a.Item.Title)
	fmt.Fprintf(&b, "source: %q\n", a.Item.URL)
	fmt.Fprintf(&b, "feed_source: %q\n", a.Item.FeedSource)
	fmt.Fprintf(&b, "published: %q\n", a.Item.Published)
	fmt.Fprintf(&b, "created: %q\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(a.Tags, ", "))
	b.WriteString("status: unreviewed\n")
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", a.Item.Title)

	b.WriteString("## AI-Generated Summary\n")
	for _, bullet := range a.Summary.BulletPoints {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}
	if len(a.Summary.SuggestedTags) > 0 {
		b.WriteString("\nSuggested tags:")
		for _, tag := range a.Summary.SuggestedTags {
			fmt.Fprintf(&b, " #%s", tag)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Original Article\n")
	b.WriteString(a.Fetch.Content)
	b.WriteString("\n\n---\n")

	fmt.Fprintf(&b, "**Source:** %s\n", a.Item.FeedSource)
	fmt.Fprintf(&b, "**URL:** %s\n", a.Item.URL)
	fmt.Fprintf(&b, "**Date:** %s\n", a.Item.Published)
	fmt.Fprintf(&b, "**Keywords Matched:** %s\n", strings.Join(a.Item.MatchedKeywords, ", "))

	b.WriteString("\n*Review notes:*\n")
	b.WriteString("- [ ] Read and verify summary\n")
	b.WriteString("- [ ] Adjust tags as needed\n")
	b.WriteString("- [ ] Add supplementary observations\n")

	return b.String()
}

// Slug derives a filesystem-safe base name from a title: specials removed,
// whitespace collapsed to underscores, length capped. The returned name
// carries no extension; collision handling belongs to the sink.
func Slug(title string) string {
	clean := slugSpecials.ReplaceAllString(title, "")
	clean = slugWhitespace.ReplaceAllString(clean, "_")
	clean = strings.Trim(clean, "_")
	if len(clean) > maxSlugLength {
		clean = clean[:maxSlugLength]
		clean = strings.TrimRight(clean, "_")
	}
	if clean == "" {
		clean = "untitled"
	}
	return clean
}
