// Package urlnorm canonicalizes backlink URLs and extracts comparable domains
// so that duplicate backlink sites can be detected and merged.
package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidURL is returned for input that cannot be read as an http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

const wwwPrefix = "www."

// trackingParams are dropped from canonical URLs in addition to utm_*.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"msclkid": {},
	"ref":     {},
}

// Normalize returns the canonical form of raw: https scheme, lower-case host
// without "www." or a default port, no trailing slash, no fragment and no
// tracking parameters. URLs that differ only in scheme, "www." or a trailing
// slash normalize to the same string.
func Normalize(raw string) (string, error) {
	u, err := parse(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(canonicalHost(u))
	b.WriteString(strings.TrimRight(u.EscapedPath(), "/"))
	if q := cleanQuery(u.Query()); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String(), nil
}

// ExtractDomain returns the bare host of raw (lower case, no "www.", no
// port). Unparseable input yields a best-effort guess; it never fails.
func ExtractDomain(raw string) string {
	if u, err := parse(raw); err == nil {
		return stripWWW(strings.TrimSuffix(strings.ToLower(u.Hostname()), "."))
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "//")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	return stripWWW(strings.TrimSpace(s))
}

// IsKnownDomain reports whether host ends in a recognised public suffix and
// has at least one label in front of it.
func IsKnownDomain(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" || !strings.Contains(host, ".") || !validHost(host) {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(host)
	if suffix == host {
		return false
	}
	// private-registry suffixes (blogspot.com etc.) are multi-label
	return icann || strings.Contains(suffix, ".")
}

// AreDuplicateURLs reports whether a and b point at the same domain.
func AreDuplicateURLs(a, b string) bool {
	da := ExtractDomain(a)
	return da != "" && da == ExtractDomain(b)
}

func parse(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	switch {
	case strings.HasPrefix(s, "//"):
		s = "https:" + s
	case !strings.Contains(s, "://"):
		if hasOpaqueScheme(s) {
			return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, s)
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, err.Error())
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	u.Scheme = scheme

	if u.User != nil {
		return nil, fmt.Errorf("%w: credentials in URL", ErrInvalidURL)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || !validHost(host) {
		return nil, fmt.Errorf("%w: bad host %q", ErrInvalidURL, u.Hostname())
	}
	if host != "localhost" && !strings.Contains(host, ".") {
		return nil, fmt.Errorf("%w: host %q has no domain suffix", ErrInvalidURL, host)
	}
	return u, nil
}

// hasOpaqueScheme reports whether s starts with "scheme:" rather than
// "host:port" (mailto:, tel:, javascript:).
func hasOpaqueScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 || strings.ContainsAny(s[:i], "/?#@") {
		return false
	}
	rest := s[i+1:]
	return rest == "" || rest[0] < '0' || rest[0] > '9'
}

func validHost(host string) bool {
	if strings.HasPrefix(host, ".") || strings.HasPrefix(host, "-") || strings.Contains(host, "..") {
		return false
	}
	for _, r := range host {
		if r != '.' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func canonicalHost(u *url.URL) string {
	host := stripWWW(strings.TrimSuffix(strings.ToLower(u.Hostname()), "."))
	switch port := u.Port(); port {
	case "", "80", "443":
		return host
	default:
		return host + ":" + port
	}
}

func stripWWW(host string) string {
	return strings.TrimPrefix(host, wwwPrefix)
}

func cleanQuery(values url.Values) string {
	for key := range values {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			values.Del(key)
			continue
		}
		if _, drop := trackingParams[lower]; drop {
			values.Del(key)
		}
	}
	return values.Encode()
}
