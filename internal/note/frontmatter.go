package note

import (
	"fmt"
	"strconv"
	"strings"
)

// FrontMatter holds the metadata block parsed back out of a rendered note.
// The vault-sync collaborator uses it to index notes without a YAML engine.
type FrontMatter struct {
	Title      string
	Source     string
	FeedSource string
	Published  string
	Created    string
	Tags       []string
	Status     string
}

// ParseFrontMatter extracts the leading metadata block from a rendered note
// document.
func ParseFrontMatter(doc string) (FrontMatter, error) {
	var fm FrontMatter

	doc = strings.TrimPrefix(doc, "\uFEFF")
	if !strings.HasPrefix(doc, "---\n") {
		return fm, fmt.Errorf("document has no front-matter block")
	}
	rest := doc[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, fmt.Errorf("front-matter block is not terminated")
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return fm, fmt.Errorf("malformed front-matter line %q", line)
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "title":
			fm.Title = unquote(value)
		case "source":
			fm.Source = unquote(value)
		case "feed_source":
			fm.FeedSource = unquote(value)
		case "published":
			fm.Published = unquote(value)
		case "created":
			fm.Created = unquote(value)
		case "status":
			fm.Status = unquote(value)
		case "tags":
			fm.Tags = parseTagList(value)
		}
	}
	return fm, nil
}

func unquote(value string) string {
	if unquoted, err := strconv.Unquote(value); err == nil {
		return unquoted
	}
	return value
}

func parseTagList(value string) []string {
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
