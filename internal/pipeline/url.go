package pipeline

import (
	"fmt"
	"net/url"
	"strings"
)

// Query parameters that identify a click, not an article. Stripping them
// keeps the dedup key stable across feeds that decorate the same link.
var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"igshid": {},
	"mc_cid": {},
	"mc_eid": {},
}

// NormalizeURL produces the deduplication key for an article URL. It
// lowercases the scheme and host, removes default ports and fragments,
// strips tracking parameters (utm_* and known click IDs), and sorts the
// remaining query parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
			q.Del(key)
			continue
		}
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
