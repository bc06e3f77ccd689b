package pipeline

import "strings"

// MergeTags combines keyword-matched tags with AI-suggested tags into an
// ordered, case-insensitively deduplicated union. Matched keywords come
// first and the first-seen casing wins.
func MergeTags(matched, suggested []string) []string {
	seen := make(map[string]struct{}, len(matched)+len(suggested))
	merged := make([]string, 0, len(matched)+len(suggested))
	appendUnique := func(tags []string) {
		for _, tag := range tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, tag)
		}
	}
	appendUnique(matched)
	appendUnique(suggested)
	return merged
}

// NormalizeTag lowercases a tag and hyphenates interior whitespace, so
// "Data Protection" and "data-protection" collapse to the same tag.
func NormalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "-")
}
