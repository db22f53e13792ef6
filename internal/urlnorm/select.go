package urlnorm

import (
	"net/url"
	"strings"
)

// SelectBetterURL picks the preferred of two URLs for the same site. The
// order is: parseable, https, bare root (no path or query), no "www.",
// shorter, then lexicographically smaller. The result depends only on the
// two inputs, not on their order.
func SelectBetterURL(a, b string) string {
	if a == b {
		return a
	}
	ra, rb := rankOf(a), rankOf(b)
	if ra.better(rb) {
		return a
	}
	if rb.better(ra) {
		return b
	}
	if a < b {
		return a
	}
	return b
}

type rank struct {
	valid  bool
	https  bool
	root   bool
	noWWW  bool
	length int
}

func rankOf(raw string) rank {
	s := strings.TrimSpace(raw)
	r := rank{length: len(s)}

	u, err := parse(s)
	if err != nil {
		return r
	}
	r.valid = true
	r.https = strings.HasPrefix(strings.ToLower(s), "https://")
	r.root = isRoot(u)
	r.noWWW = !strings.HasPrefix(strings.ToLower(u.Hostname()), wwwPrefix)
	return r
}

func isRoot(u *url.URL) bool {
	return strings.Trim(u.EscapedPath(), "/") == "" && u.RawQuery == ""
}

// better reports whether r strictly beats o on the first differing criterion.
func (r rank) better(o rank) bool {
	for _, c := range [][2]bool{
		{r.valid, o.valid},
		{r.https, o.https},
		{r.root, o.root},
		{r.noWWW, o.noWWW},
	} {
		if c[0] != c[1] {
			return c[0]
		}
	}
	return r.length < o.length
}

// DedupeResult is the outcome of DeduplicateURLs.
type DedupeResult struct {
	Unique  []string `json:"unique"`
	Removed int      `json:"removed"`
	Invalid []string `json:"invalid,omitempty"`
}

// DeduplicateURLs keeps one URL per domain, the one SelectBetterURL prefers,
// in order of first appearance. Unparseable entries are reported as Invalid.
func DeduplicateURLs(urls []string) DedupeResult {
	var (
		result DedupeResult
		order  []string
		best   = make(map[string]string, len(urls))
	)

	for _, raw := range urls {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, err := parse(s); err != nil {
			result.Invalid = append(result.Invalid, s)
			continue
		}

		domain := ExtractDomain(s)
		if current, seen := best[domain]; seen {
			best[domain] = SelectBetterURL(current, s)
			result.Removed++
			continue
		}
		best[domain] = s
		order = append(order, domain)
	}

	result.Unique = make([]string, 0, len(order))
	for _, domain := range order {
		result.Unique = append(result.Unique, best[domain])
	}
	return result
}
