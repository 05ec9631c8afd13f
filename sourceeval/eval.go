package sourceeval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidConfiguration is returned when the caller supplies an unusable
// allow list or threshold. It indicates caller misuse and is not recovered.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// AllowList is a set of trusted registrable domains, normalized for
// membership tests. It is immutable for the duration of one evaluation.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList from domain strings. Entries are
// lowercased and a leading "www." is stripped, so callers may supply
// either form. Empty entries are discarded.
func NewAllowList(domains ...string) AllowList {
	al := make(AllowList, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" {
			continue
		}
		al[d] = struct{}{}
	}
	return al
}

// Contains reports whether the normalized host falls under any entry:
// either an exact match, or a sub-domain of an entry.
func (al AllowList) Contains(host string) bool {
	if _, ok := al[host]; ok {
		return true
	}
	for d := range al {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Domains returns the entries in sorted order.
func (al AllowList) Domains() []string {
	res := make([]string, 0, len(al))
	for d := range al {
		res = append(res, d)
	}
	sort.Strings(res)
	return res
}

// Result is the outcome of one evaluation.
type Result struct {
	// Passed is true when at least one URL was found and the matched
	// ratio meets the threshold.
	Passed bool `json:"passed"`
	// Ratio is matched/total, 0.0 when no URLs were found.
	Ratio float64 `json:"ratio"`
	// Matched and Unmatched preserve extraction order and duplicates.
	Matched   []string `json:"matched,omitempty"`
	Unmatched []string `json:"unmatched,omitempty"`
	// Report is a human-readable evaluation summary.
	Report string `json:"report"`
}

// Evaluate scores the URLs embedded in text against the allow list and
// decides pass/fail. A URL counts as matched when its host equals, or is a
// sub-domain of, an allow-list entry. The ratio of matched URLs must reach
// minRatio for a pass; text with no URLs always fails (no evidence of
// sourcing). Pure function: no IO, no shared state.
func Evaluate(allow AllowList, text string, minRatio float64) (*Result, error) {
	if len(allow) == 0 {
		return nil, errors.WithMessage(ErrInvalidConfiguration, "allow list is empty")
	}
	if !(minRatio >= 0.0 && minRatio <= 1.0) {
		return nil, errors.WithMessagef(ErrInvalidConfiguration, "min ratio %v is not in [0,1]", minRatio)
	}

	urls := ExtractURLs(text)

	res := &Result{}
	for _, u := range urls {
		host, err := NormalizeHost(u)
		if err == nil && allow.Contains(host) {
			res.Matched = append(res.Matched, u)
		} else {
			res.Unmatched = append(res.Unmatched, u)
		}
	}

	total := len(urls)
	if total > 0 {
		res.Ratio = float64(len(res.Matched)) / float64(total)
	}
	res.Passed = total > 0 && res.Ratio >= minRatio
	res.Report = formatReport(res, total, minRatio)

	return res, nil
}

func formatReport(res *Result, total int, minRatio float64) string {
	var sb strings.Builder
	sb.WriteString("Source Evaluation\n")
	sb.WriteString("=================\n")
	fmt.Fprintf(&sb, "Total URLs: %d\n", total)
	fmt.Fprintf(&sb, "Matched:    %d\n", len(res.Matched))
	fmt.Fprintf(&sb, "Ratio:      %.2f%% (min %.2f%%)\n", res.Ratio*100, minRatio*100)

	if len(res.Matched) > 0 {
		sb.WriteString("\nMatched URLs:\n")
		for _, u := range res.Matched {
			fmt.Fprintf(&sb, "  - %s\n", u)
		}
	}
	if len(res.Unmatched) > 0 {
		sb.WriteString("\nUnmatched URLs:\n")
		for _, u := range res.Unmatched {
			fmt.Fprintf(&sb, "  - %s\n", u)
		}
	}

	verdict := "FAIL"
	if res.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(&sb, "\nVerdict: %s\n", verdict)
	return sb.String()
}
