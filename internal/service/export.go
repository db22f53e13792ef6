package service

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
)

var (
	siteCSVHeader     = []string{"id", "name", "domain", "status", "category_id", "platform", "created_at"}
	backlinkCSVHeader = []string{
		"site_name", "site_domain", "backlink_url", "backlink_domain", "status",
		"submit_date", "indexed_date", "importance_score", "cost", "notes",
	}
)

// Exporter writes CSV exports. String fields are JSON string literals
// (control characters as \uXXXX, invalid UTF-8 as U+FFFD, no HTML
// escaping); numbers are written bare and missing values as empty fields.
type Exporter struct {
	store *repository.Store
}

func NewExporter(store *repository.Store) *Exporter {
	return &Exporter{store: store}
}

// Sites writes every live site.
func (e *Exporter) Sites(ctx context.Context, w io.Writer) error {
	sites, _, err := e.store.Sites.List(ctx, models.SiteFilter{SortBy: "name", SortOrder: "asc"})
	if err != nil {
		return err
	}

	cw := newCSVWriter(w, siteCSVHeader)
	for i := range sites {
		site := &sites[i]
		cw.row(
			quote(site.ID.String()),
			quote(site.Name),
			quote(site.Domain),
			quote(string(site.Status)),
			quotePtr(site.CategoryID),
			quotePtr(site.Platform),
			quote(site.CreatedAt.UTC().Format(time.RFC3339)),
		)
	}
	return cw.flush()
}

// Backlinks writes submissions matching filter, joined with their sites.
func (e *Exporter) Backlinks(ctx context.Context, w io.Writer, filter models.SubmissionFilter) error {
	views, err := e.store.Submissions.List(ctx, filter)
	if err != nil {
		return err
	}

	cw := newCSVWriter(w, backlinkCSVHeader)
	for i := range views {
		v := &views[i]
		cw.row(
			quote(v.SiteName),
			quote(v.SiteDomain),
			quote(v.BacklinkURL),
			quote(v.BacklinkDomain),
			quote(string(v.Status)),
			quoteDate(v.SubmitDate),
			quoteDate(v.IndexedDate),
			strconv.Itoa(v.ImportanceScore),
			formatFloat(v.Cost),
			quotePtr(v.Notes),
		)
	}
	return cw.flush()
}

type csvWriter struct {
	w *bufio.Writer
}

func newCSVWriter(w io.Writer, header []string) *csvWriter {
	cw := &csvWriter{w: bufio.NewWriter(w)}
	cw.row(header...)
	return cw
}

func (c *csvWriter) row(fields ...string) {
	c.w.WriteString(strings.Join(fields, ","))
	c.w.WriteByte('\n')
}

func (c *csvWriter) flush() error {
	return c.w.Flush()
}

func quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // a string always encodes
	return strings.TrimSuffix(b.String(), "\n")
}

func quotePtr(s *string) string {
	if s == nil {
		return ""
	}
	return quote(*s)
}

func quoteDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return quote(t.Format(time.DateOnly))
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
