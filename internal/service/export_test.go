package service_test

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/testhelpers"
)

func TestExporter_Backlinks(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	exporter := service.NewExporter(store)

	submitted := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_submissions bs")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "site_id", "backlink_site_id", "status", "submit_date", "cost", "notes",
			"site_name", "site_domain", "backlink_url", "backlink_domain", "importance_score",
		}).AddRow(
			uuid.NewString(), uuid.NewString(), uuid.NewString(), "submitted", submitted, 12.5, `said "hi"`,
			"Alpha", "alpha.com", "https://links.dev", "links.dev", 23,
		))

	var buf bytes.Buffer
	require.NoError(t, exporter.Backlinks(context.Background(), &buf, models.SubmissionFilter{}))

	assert.Equal(t,
		"site_name,site_domain,backlink_url,backlink_domain,status,submit_date,indexed_date,importance_score,cost,notes\n"+
			`"Alpha","alpha.com","https://links.dev","links.dev","submitted","2025-02-14",,23,12.5,"said \"hi\""`+"\n",
		buf.String())
}

func TestExporter_QuotesAsJSONStrings(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_submissions bs")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "site_id", "backlink_site_id", "status", "submit_date", "cost", "notes",
			"site_name", "site_domain", "backlink_url", "backlink_domain", "importance_score",
		}).AddRow(
			uuid.NewString(), uuid.NewString(), uuid.NewString(), "pending", nil, nil, "a\x01b\tc <b>&\xff",
			"Alpha", "alpha.com", "https://links.dev/?a=1&b=2", "links.dev", 30,
		))

	var buf bytes.Buffer
	require.NoError(t, service.NewExporter(store).Backlinks(context.Background(), &buf, models.SubmissionFilter{}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`"Alpha","alpha.com","https://links.dev/?a=1&b=2","links.dev","pending",,,30,,"a\u0001b\tc <b>&\ufffd"`,
		lines[1])
}

func TestExporter_SitesEmpty(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sites")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sites")).
		WillReturnRows(testhelpers.SiteRows())

	var buf bytes.Buffer
	require.NoError(t, service.NewExporter(store).Sites(context.Background(), &buf))
	assert.Equal(t, "id,name,domain,status,category_id,platform,created_at\n", buf.String())
}
