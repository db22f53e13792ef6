// Package importer reads and writes backlink sites as XLSX workbooks.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const (
	headerURL      = "url"
	headerDR       = "dr"
	headerNote     = "note"
	headerFavorite = "favorite"

	headerRowIndex = 1 // Excel rows are 1-based, header is row 1

	// ExportSheet is the sheet written by WriteBacklinkSites.
	ExportSheet = "Backlink Sites"
)

// ErrMissingURLColumn is returned when the header row has no url column.
var ErrMissingURLColumn = errors.New("header row must contain a url column")

// headerAliases maps accepted header spellings onto canonical names.
var headerAliases = map[string]string{
	"url":           headerURL,
	"website":       headerURL,
	"site":          headerURL,
	"dr":            headerDR,
	"domain rating": headerDR,
	"note":          headerNote,
	"notes":         headerNote,
	"favorite":      headerFavorite,
	"favourite":     headerFavorite,
	"is_favorite":   headerFavorite,
}

// BacklinkRow is one parsed spreadsheet row.
type BacklinkRow struct {
	Row        int // Excel row number, for error reporting
	URL        string
	DR         *float64
	Note       string
	IsFavorite bool
}

// ImportError is a validation failure for one row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ParseExcelFile reads the first sheet of r. Rows that fail validation are
// returned as ImportErrors; blank rows are skipped.
func ParseExcelFile(r io.Reader) ([]BacklinkRow, []ImportError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < headerRowIndex {
		return nil, nil, ErrMissingURLColumn
	}

	columns := mapHeader(rows[headerRowIndex-1])
	if _, ok := columns[headerURL]; !ok {
		return nil, nil, ErrMissingURLColumn
	}

	var (
		parsed    []BacklinkRow
		rowErrors []ImportError
	)
	for i, cells := range rows[headerRowIndex:] {
		rowNum := i + headerRowIndex + 1
		if isBlank(cells) {
			continue
		}

		row, parseErr := parseRow(rowNum, cells, columns)
		if parseErr == "" {
			parseErr = ValidateRow(row)
		}
		if parseErr != "" {
			rowErrors = append(rowErrors, ImportError{Row: rowNum, Error: parseErr})
			continue
		}
		parsed = append(parsed, row)
	}

	return parsed, rowErrors, nil
}

// headerKey case-folds a header cell and collapses its whitespace, so
// "Domain  Rating" and "DOMAIN RATING" match the same alias.
func headerKey(cell string) string {
	return strings.Join(strings.Fields(cases.Fold().String(cell)), " ")
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name, ok := headerAliases[headerKey(h)]
		if !ok {
			continue
		}
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	return columns
}

func parseRow(rowNum int, cells []string, columns map[string]int) (BacklinkRow, string) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	row := BacklinkRow{
		Row:  rowNum,
		URL:  cell(headerURL),
		Note: cell(headerNote),
	}

	if raw := cell(headerDR); raw != "" {
		dr, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return row, "dr must be a number"
		}
		row.DR = &dr
	}

	favorite, ok := parseBool(cell(headerFavorite))
	if !ok {
		return row, "favorite must be true/false/yes/no/1/0"
	}
	row.IsFavorite = favorite

	return row, ""
}

// ValidateRow returns an error message for row, or "".
func ValidateRow(row BacklinkRow) string {
	if strings.TrimSpace(row.URL) == "" {
		return "url is required"
	}
	if row.DR != nil && (*row.DR < 0 || *row.DR > 100) {
		return "dr must be between 0 and 100"
	}
	return ""
}

// parseBool accepts true/false/1/0/yes/no; empty is false.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "", "false", "0", "no", "n":
		return false, true
	case "true", "1", "yes", "y":
		return true, true
	}
	return false, false
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var exportHeaders = []string{
	"url", "domain", "dr", "importance_score", "authority_score", "organic_traffic",
	"backlinks", "ref_domains", "favorite", "semrush_tags", "note",
}

// WriteBacklinkSites writes sites as a single-sheet workbook to w.
func WriteBacklinkSites(w io.Writer, sites []models.BacklinkSite) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, toAny(exportHeaders)); err != nil {
		return err
	}
	for i := range sites {
		if err := writeRow(f, i+2, exportValues(&sites[i])); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func exportValues(b *models.BacklinkSite) []any {
	note := ""
	if b.Note != nil {
		note = *b.Note
	}
	return []any{
		b.URL,
		b.Domain,
		optional(b.DR),
		b.ImportanceScore,
		optional(b.AuthorityScore),
		optional(b.OrganicTraffic),
		optional(b.Backlinks),
		optional(b.RefDomains),
		b.IsFavorite,
		strings.Join(b.SemrushTags, ", "),
		note,
	}
}

// optional renders a nil pointer as an empty cell.
func optional[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
