package googlesync_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/googlesync"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
	"github.com/huzhengnan/website-monitor-sub000/internal/testhelpers"
)

var syncNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeFactory struct {
	traffic    []models.TrafficData
	search     []models.SearchConsoleData
	err        error
	gotWindow  aggregate.Window
	gotProp    string
	gotSiteURL string
}

func (f *fakeFactory) Analytics(context.Context, []byte) (googlesync.TrafficFetcher, error) {
	return f, nil
}

func (f *fakeFactory) SearchConsole(context.Context, []byte) (googlesync.SearchFetcher, error) {
	return f, nil
}

func (f *fakeFactory) FetchTraffic(_ context.Context, propertyID string, w aggregate.Window) ([]models.TrafficData, error) {
	f.gotProp, f.gotWindow = propertyID, w
	return f.traffic, f.err
}

func (f *fakeFactory) FetchSearch(_ context.Context, siteURL string, w aggregate.Window) ([]models.SearchConsoleData, error) {
	f.gotSiteURL, f.gotWindow = siteURL, w
	return f.search, f.err
}

func newSyncer(t *testing.T, factory googlesync.ClientFactory, metrics *telemetry.Metrics) (*googlesync.Syncer, sqlmock.Sqlmock) {
	t.Helper()

	store, mock := testhelpers.NewMockStore(t)
	syncer := googlesync.NewSyncer(store, factory, nil, metrics, testhelpers.NewTestLogger(), googlesync.Options{
		Days:              7,
		RequestsPerSecond: 100,
		Burst:             10,
		Now:               func() time.Time { return syncNow },
	})
	return syncer, mock
}

func expectConnector(mock sqlmock.Sqlmock, id, siteID uuid.UUID, typ models.ConnectorType, config string, status models.ConnectorStatus) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM connectors WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(testhelpers.ConnectorRows().AddRow(
			id.String(), siteID.String(), string(typ), `{"type":"service_account"}`, config, string(status),
			nil, nil, syncNow, syncNow,
		))
}

func TestSyncConnector_SearchConsole(t *testing.T) {
	t.Parallel()

	id, siteID := uuid.New(), uuid.New()
	factory := &fakeFactory{search: []models.SearchConsoleData{
		{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), TotalClicks: 3},
		{Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), TotalClicks: 5},
	}}
	metrics := telemetry.New()
	syncer, mock := newSyncer(t, factory, metrics)

	expectConnector(mock, id, siteID, models.ConnectorSearchConsole, `{"siteUrl":"sc-domain:example.com"}`, models.ConnectorActive)
	for range factory.search {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO search_console_data")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE connectors SET status = $1, last_sync_at = $2")).
		WithArgs(string(models.ConnectorActive), syncNow, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := syncer.SyncConnector(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, siteID, result.SiteID)
	assert.Equal(t, "sc-domain:example.com", factory.gotSiteURL)
	assert.Equal(t, "2025-03-02", factory.gotWindow.Start.String())
	assert.Equal(t, "2025-03-08", factory.gotWindow.End.String())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SyncRuns.WithLabelValues("SearchConsole", "success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SyncRows.WithLabelValues("SearchConsole")), 0)
}

func TestSyncConnector_FailureMarksError(t *testing.T) {
	t.Parallel()

	id, siteID := uuid.New(), uuid.New()
	factory := &fakeFactory{err: errors.New("quota exceeded")}
	syncer, mock := newSyncer(t, factory, nil)

	expectConnector(mock, id, siteID, models.ConnectorGoogleAnalytics, `{"propertyId":"123456"}`, models.ConnectorActive)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE connectors SET status = $1, last_error = $2")).
		WithArgs(string(models.ConnectorError), "quota exceeded", syncNow, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := syncer.SyncConnector(context.Background(), id)
	require.EqualError(t, err, "quota exceeded")
	assert.Equal(t, "123456", factory.gotProp)
}

func TestSyncConnector_Inactive(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	syncer, mock := newSyncer(t, &fakeFactory{}, nil)
	expectConnector(mock, id, uuid.New(), models.ConnectorGoogleAnalytics, `{"propertyId":"1"}`, models.ConnectorInactive)

	_, err := syncer.SyncConnector(context.Background(), id)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestSyncAll_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	first, second, siteID := uuid.New(), uuid.New(), uuid.New()
	syncer, mock := newSyncer(t, &fakeFactory{}, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM connectors c")).
		WillReturnRows(testhelpers.ConnectorRows().
			AddRow(first.String(), siteID.String(), "GoogleAnalytics", `{}`, `{"propertyId":"1"}`, "active", nil, nil, syncNow, syncNow).
			AddRow(second.String(), siteID.String(), "SearchConsole", `{"k":"v"}`, `{"siteUrl":"https://example.com/"}`, "error", nil, nil, syncNow, syncNow))

	// The first connector has no usable credentials.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE connectors SET status = $1, last_error = $2")).
		WithArgs(string(models.ConnectorError), sqlmock.AnyArg(), syncNow, first).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE connectors SET status = $1, last_sync_at = $2")).
		WithArgs(string(models.ConnectorActive), syncNow, second).
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary, err := syncer.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, googlesync.Summary{Connectors: 2, Succeeded: 1, Failed: 1}, summary)
}
