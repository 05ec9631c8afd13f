package sourceeval

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"mvdan.cc/xurls/v2"
)

// urlMatcher requires a scheme, so bare words like "nature.com" in prose
// are not counted as citations.
var urlMatcher = xurls.Strict()

// ExtractURLs scans text for embedded URLs and returns them in first-seen
// order. Duplicates are preserved: repeated citation of a reputable domain
// is a legitimate positive signal, so every occurrence counts.
func ExtractURLs(text string) []string {
	return urlMatcher.FindAllString(text, -1)
}

// NormalizeHost derives the comparable host of a URL: the domain portion,
// lowercased, with a leading "www." stripped.
func NormalizeHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse URL: %s", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errors.Newf("no host in URL: %s", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}
