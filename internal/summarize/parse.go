package summarize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clipfeed/notepress/internal/pipeline"
)

const maxBulletPoints = 6

var tagPattern = regexp.MustCompile(`#([a-zA-Z0-9_-]+)`)

// ParseResponse extracts the bullet points and suggested hashtags from a
// completion. Bullets are capped at six; tags are lowercased and
// deduplicated preserving first appearance.
func ParseResponse(text string) (pipeline.SummaryResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return pipeline.SummaryResult{}, fmt.Errorf("empty summarization response")
	}

	var bullets []string
	for _, raw := range strings.Split(trimmed, "\n") {
		line := strings.TrimSpace(raw)
		for _, prefix := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, prefix) {
				if point := strings.TrimSpace(strings.TrimPrefix(line, prefix)); point != "" {
					bullets = append(bullets, point)
				}
				break
			}
		}
		if len(bullets) == maxBulletPoints {
			break
		}
	}
	if len(bullets) == 0 {
		// Some models answer in prose; keep the first sentence-bearing line
		// so the summary section is never empty.
		for _, raw := range strings.Split(trimmed, "\n") {
			line := strings.TrimSpace(raw)
			if line != "" {
				bullets = append(bullets, line)
				break
			}
		}
	}

	seen := make(map[string]struct{})
	var tags []string
	for _, match := range tagPattern.FindAllStringSubmatch(trimmed, -1) {
		tag := pipeline.NormalizeTag(match[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return pipeline.SummaryResult{
		BulletPoints:  bullets,
		SuggestedTags: tags,
	}, nil
}
