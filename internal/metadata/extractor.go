// Package metadata fetches a backlink site's homepage and extracts the
// title and description used to prefill its note.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	infraerrors "github.com/huzhengnan/website-monitor-sub000/infrastructure/errors"
	infrahttp "github.com/huzhengnan/website-monitor-sub000/infrastructure/http"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
)

const (
	defaultHTTPTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a page is parsed.
	maxBodyBytes = 2 << 20

	maxDescriptionLength = 300
)

// ErrBlockedURL is returned for URLs that point at private or internal hosts.
var ErrBlockedURL = errors.New("blocked URL")

var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
	"169.254.169.254":          true,
}

// Metadata is what a homepage says about itself.
type Metadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Note renders m as a one-line backlink note.
func (m *Metadata) Note() string {
	switch {
	case m.Title != "" && m.Description != "":
		return m.Title + " - " + m.Description
	case m.Title != "":
		return m.Title
	default:
		return m.Description
	}
}

// Config configures an Extractor.
type Config struct {
	Timeout   time.Duration
	UserAgent string

	// AllowPrivateHosts disables the private address check. Tests only.
	AllowPrivateHosts bool
}

// Extractor fetches and parses pages.
type Extractor struct {
	logger       infralogger.Logger
	client       *http.Client
	allowPrivate bool
}

// NewExtractor creates a metadata extractor.
func NewExtractor(cfg Config, log infralogger.Logger) *Extractor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &Extractor{
		logger: log,
		client: infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout:   timeout,
			UserAgent: cfg.UserAgent,
		}),
		allowPrivate: cfg.AllowPrivateHosts,
	}
}

// Extract fetches pageURL and reads its metadata.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Metadata, error) {
	parsedURL, err := e.validateURL(pageURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", parsedURL.Host, err)
	}
	defer resp.Body.Close()

	if checkErr := infraerrors.CheckResponse(resp); checkErr != nil {
		return nil, checkErr
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	meta := &Metadata{
		URL:         parsedURL.String(),
		Title:       extractTitle(doc, parsedURL),
		Description: truncate(extractDescription(doc), maxDescriptionLength),
		SiteName:    attr(doc, "meta[property='og:site_name']", "content"),
		Canonical:   attr(doc, "link[rel='canonical']", "href"),
		Language:    attr(doc, "html", "lang"),
	}

	e.logger.Debug("Metadata extracted",
		infralogger.String("url", meta.URL),
		infralogger.String("title", meta.Title),
	)
	return meta, nil
}

// extractTitle prefers og:title, then <title>, then the host.
func extractTitle(doc *goquery.Document, parsedURL *url.URL) string {
	if ogTitle := attr(doc, "meta[property='og:title']", "content"); ogTitle != "" {
		return ogTitle
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return parsedURL.Hostname()
}

func extractDescription(doc *goquery.Document) string {
	if d := attr(doc, "meta[name='description']", "content"); d != "" {
		return d
	}
	return attr(doc, "meta[property='og:description']", "content")
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func (e *Extractor) validateURL(raw string) (*url.URL, error) {
	if err := validateURLScheme(raw); err != nil {
		if !e.allowPrivate || !errors.Is(err, ErrBlockedURL) {
			return nil, err
		}
	}
	parsed, _ := url.Parse(raw)

	if e.allowPrivate {
		return parsed, nil
	}
	if ip := net.ParseIP(parsed.Hostname()); isPrivateIP(ip) {
		return nil, fmt.Errorf("%w: private address %s", ErrBlockedURL, ip)
	}
	return parsed, nil
}

func validateURLScheme(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return errors.New("invalid URL: missing host")
	}
	if blockedHostnames[strings.ToLower(parsed.Hostname())] {
		return fmt.Errorf("%w: blocked hostname %s", ErrBlockedURL, parsed.Hostname())
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
