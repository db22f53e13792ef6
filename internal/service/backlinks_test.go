package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
	"github.com/huzhengnan/website-monitor-sub000/internal/testhelpers"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newBacklinkService(t *testing.T, metrics *telemetry.Metrics) (*service.BacklinkService, sqlmock.Sqlmock) {
	t.Helper()
	store, mock := testhelpers.NewMockStore(t)
	return service.NewBacklinkService(store, nil, nil, metrics, testhelpers.NewTestLogger(), clock), mock
}

func expectNewBacklinkSite(mock sqlmock.Sqlmock, domain string) uuid.UUID {
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE domain = $1")).
		WithArgs(domain).
		WillReturnRows(testhelpers.BacklinkSiteRows())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO backlink_sites")).
		WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(id.String(), "https://"+domain, domain, nil, nil, false, 0))
	return id
}

func expectStatuses(mock sqlmock.Sqlmock, id uuid.UUID, statuses ...string) {
	rows := sqlmock.NewRows([]string{"status"})
	for _, s := range statuses {
		rows.AddRow(s)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM backlink_submissions WHERE backlink_site_id = $1")).
		WithArgs(id).
		WillReturnRows(rows)
}

func TestBacklinkService_ImportSemrush_ReportsInvalidItem(t *testing.T) {
	t.Parallel()

	metrics := telemetry.New()
	svc, mock := newBacklinkService(t, metrics)

	text := "alpha.com\nAuthority Score\n40\n\nbeta.com\nAuthority Score\n140\n\ngamma.com\nAuthority Score\n20\n"
	for _, domain := range []string{"alpha.com", "gamma.com"} {
		mock.ExpectBegin()
		id := expectNewBacklinkSite(mock, domain)
		expectStatuses(mock, id)
		mock.ExpectCommit()
	}

	result, err := svc.ImportSemrush(context.Background(), &models.SemrushImportRequest{PastedText: text})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Index)
	assert.Equal(t, "beta.com", result.Errors[0].Item)
}

func TestBacklinkService_ImportSemrush_NothingParsed(t *testing.T) {
	t.Parallel()

	svc, _ := newBacklinkService(t, nil)
	_, err := svc.ImportSemrush(context.Background(), &models.SemrushImportRequest{PastedText: "   "})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "pastedText", vErr.Field)
}

func TestBacklinkService_Create_ExactDuplicate(t *testing.T) {
	t.Parallel()

	svc, mock := newBacklinkService(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE url = $1")).
		WithArgs("https://example.com").
		WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(uuid.NewString(), "https://example.com", "example.com", nil, nil, false, 0))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), &models.BacklinkSiteCreateRequest{URL: "http://www.example.com/"})
	require.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestBacklinkService_Create_MergesSameDomain(t *testing.T) {
	t.Parallel()

	svc, mock := newBacklinkService(t, nil)
	existing := uuid.New()
	dr := 40.0

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE url = $1")).
		WithArgs("https://example.com").
		WillReturnRows(testhelpers.BacklinkSiteRows())
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE domain = $1")).
		WithArgs("example.com").
		WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(existing.String(), "https://example.com/blog", "example.com", nil, nil, false, 0))
	mock.ExpectQuery(`UPDATE backlink_sites\s+SET dr = \$1, url = \$2, updated_at = \$3`).
		WithArgs(dr, "https://example.com", sqlmock.AnyArg(), existing).
		WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(existing.String(), "https://example.com", "example.com", dr, nil, false, 0))
	expectStatuses(mock, existing)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE backlink_sites SET importance_score = $1")).
		WithArgs(40, sqlmock.AnyArg(), existing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Create(context.Background(), &models.BacklinkSiteCreateRequest{URL: "example.com", DR: &dr})
	require.NoError(t, err)

	assert.True(t, result.Merged)
	assert.Equal(t, existing, result.BacklinkSite.ID)
	assert.Equal(t, "https://example.com", result.BacklinkSite.URL)
	assert.Equal(t, 40, result.BacklinkSite.ImportanceScore)
}

func TestBacklinkService_Create_New(t *testing.T) {
	t.Parallel()

	svc, mock := newBacklinkService(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE url = $1")).
		WithArgs("https://fresh.io").
		WillReturnRows(testhelpers.BacklinkSiteRows())
	id := expectNewBacklinkSite(mock, "fresh.io")
	expectStatuses(mock, id)
	mock.ExpectCommit()

	result, err := svc.Create(context.Background(), &models.BacklinkSiteCreateRequest{URL: "https://fresh.io/"})
	require.NoError(t, err)
	assert.False(t, result.Merged)
	assert.Equal(t, id, result.BacklinkSite.ID)
}

func TestBacklinkService_Create_InvalidURL(t *testing.T) {
	t.Parallel()

	svc, _ := newBacklinkService(t, nil)
	_, err := svc.Create(context.Background(), &models.BacklinkSiteCreateRequest{URL: "ftp://example.com"})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "url", vErr.Field)
}

func TestBacklinkService_Dedupe(t *testing.T) {
	t.Parallel()

	svc, mock := newBacklinkService(t, nil)
	keep, drop := uuid.New(), uuid.New()
	dr := 30.0

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY domain HAVING COUNT(*) > 1")).
		WillReturnRows(sqlmock.NewRows([]string{"domain"}).AddRow("dup.com"))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE domain = $1")).
		WithArgs("dup.com").
		WillReturnRows(testhelpers.BacklinkSiteRows().
			AddRow(drop.String(), "https://dup.com/page", "dup.com", dr, nil, false, 0).
			AddRow(keep.String(), "https://dup.com", "dup.com", nil, nil, false, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE backlink_submissions SET backlink_site_id = $2")).
		WithArgs(drop, keep, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM backlink_sites WHERE id = $1")).
		WithArgs(drop).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE backlink_sites\s+SET dr = \$1, updated_at = \$2`).
		WithArgs(dr, sqlmock.AnyArg(), keep).
		WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(keep.String(), "https://dup.com", "dup.com", dr, nil, false, 0))
	expectStatuses(mock, keep)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE backlink_sites SET importance_score = $1")).
		WithArgs(30, sqlmock.AnyArg(), keep).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Dedupe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &service.DedupeResult{Domains: 1, Removed: 1, Reassigned: 3}, result)
}
