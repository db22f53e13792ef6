package importer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/huzhengnan/website-monitor-sub000/internal/importer"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

// createTestExcel builds an in-memory workbook with header and rows.
func createTestExcel(t *testing.T, header []string, rows [][]string) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	all := append([][]string{header}, rows...)
	for r, values := range all {
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestParseExcelFile(t *testing.T) {
	t.Parallel()

	file := createTestExcel(t,
		[]string{"Website", "DR", "Notes", "Favorite"},
		[][]string{
			{"https://alpha.com", "45", "guest posts", "yes"},
			{"", "", "", ""},
			{"beta.io", "", "", ""},
			{"", "10", "", ""},
			{"gamma.net", "abc", "", ""},
			{"delta.org", "140", "", ""},
			{"eps.dev", "", "", "maybe"},
		})

	rows, rowErrors, err := importer.ParseExcelFile(file)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "https://alpha.com", rows[0].URL)
	require.NotNil(t, rows[0].DR)
	assert.InDelta(t, 45.0, *rows[0].DR, 0.001)
	assert.Equal(t, "guest posts", rows[0].Note)
	assert.True(t, rows[0].IsFavorite)
	assert.Equal(t, 2, rows[0].Row)

	assert.Equal(t, "beta.io", rows[1].URL)
	assert.Nil(t, rows[1].DR)
	assert.Equal(t, 4, rows[1].Row)

	assert.Equal(t, []importer.ImportError{
		{Row: 5, Error: "url is required"},
		{Row: 6, Error: "dr must be a number"},
		{Row: 7, Error: "dr must be between 0 and 100"},
		{Row: 8, Error: "favorite must be true/false/yes/no/1/0"},
	}, rowErrors)
}

func TestParseExcelFile_HeaderSpelling(t *testing.T) {
	t.Parallel()

	file := createTestExcel(t,
		[]string{"  SITE ", "Domain   Rating"},
		[][]string{{"alpha.com", "30"}})

	rows, rowErrors, err := importer.ParseExcelFile(file)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 1)
	assert.Equal(t, "alpha.com", rows[0].URL)
	require.NotNil(t, rows[0].DR)
	assert.InDelta(t, 30.0, *rows[0].DR, 0.001)
}

func TestParseExcelFile_MissingURLColumn(t *testing.T) {
	t.Parallel()

	file := createTestExcel(t, []string{"name", "dr"}, [][]string{{"x", "1"}})

	_, _, err := importer.ParseExcelFile(file)
	assert.ErrorIs(t, err, importer.ErrMissingURLColumn)
}

func TestParseExcelFile_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, _, err := importer.ParseExcelFile(bytes.NewReader([]byte("not a zip")))
	assert.Error(t, err)
}

func TestWriteBacklinkSites_RoundTripsThroughParser(t *testing.T) {
	t.Parallel()

	dr := 72.0
	note := "directory"
	sites := []models.BacklinkSite{
		{URL: "https://alpha.com", Domain: "alpha.com", DR: &dr, Note: &note, IsFavorite: true, ImportanceScore: 60},
		{URL: "https://beta.io", Domain: "beta.io"},
	}

	var buf bytes.Buffer
	require.NoError(t, importer.WriteBacklinkSites(&buf, sites))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetRows(importer.ExportSheet)
	require.NoError(t, err)
	require.Len(t, header, 3)
	assert.Equal(t, "importance_score", header[0][3])
	assert.Equal(t, "60", header[1][3])

	rows, rowErrors, err := importer.ParseExcelFile(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsFavorite)
	assert.Equal(t, "directory", rows[0].Note)
	assert.False(t, rows[1].IsFavorite)
}
