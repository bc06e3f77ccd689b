package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseItemsEnvelope(t *testing.T) {
	t.Parallel()

	payload := `{"items": [
		{"url": "https://example.com/a", "title": "A", "feed_source": "Feed", "matched_keywords": ["ai"]},
		{"url": "https://example.com/b", "title": "B", "feed_source": "Feed", "published": "2026-08-20"}
	]}`

	items, err := ParseItems(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "https://example.com/a", items[0].URL)
	require.Equal(t, []string{"ai"}, items[0].MatchedKeywords)
	require.Equal(t, "2026-08-20", items[1].Published)
}

func TestParseItemsBareArray(t *testing.T) {
	t.Parallel()

	payload := `[{"url": "https://example.com/a", "title": "A", "feed_source": "Feed"}]`

	items, err := ParseItems(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestParseItemsRejectsMissingURL(t *testing.T) {
	t.Parallel()

	payload := `{"items": [{"title": "no url"}]}`

	_, err := ParseItems(strings.NewReader(payload))
	require.ErrorContains(t, err, "missing a url")
}

func TestParseItemsRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseItems(strings.NewReader("not json"))
	require.Error(t, err)
}
