package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/Article",
			want: "https://example.com/Article",
		},
		{
			name: "strips default https port",
			in:   "https://example.com:443/a",
			want: "https://example.com/a",
		},
		{
			name: "strips default http port",
			in:   "http://example.com:80/a",
			want: "http://example.com/a",
		},
		{
			name: "removes fragment",
			in:   "https://example.com/a#section-2",
			want: "https://example.com/a",
		},
		{
			name: "strips utm parameters",
			in:   "https://example.com/a?utm_source=rss&utm_medium=feed&id=7",
			want: "https://example.com/a?id=7",
		},
		{
			name: "strips click identifiers",
			in:   "https://example.com/a?fbclid=abc&gclid=def",
			want: "https://example.com/a",
		},
		{
			name: "sorts remaining query parameters",
			in:   "https://example.com/a?b=2&a=1",
			want: "https://example.com/a?a=1&b=2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeURLRejectsHostless(t *testing.T) {
	t.Parallel()

	_, err := NormalizeURL("not-a-url")
	require.Error(t, err)
}

func TestNormalizeURLIsStableForEquivalentForms(t *testing.T) {
	t.Parallel()

	a, err := NormalizeURL("https://Example.com/story?utm_campaign=x&q=ai#top")
	require.NoError(t, err)
	b, err := NormalizeURL("https://example.com:443/story?q=ai")
	require.NoError(t, err)
	require.Equal(t, a, b)
}
