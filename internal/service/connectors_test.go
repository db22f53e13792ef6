package service_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/testhelpers"
)

func TestConnectorService_Create_DuplicateType(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	svc := service.NewConnectorService(store, nil, testhelpers.NewTestLogger())
	siteID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sites WHERE id = $1")).
		WithArgs(siteID).
		WillReturnRows(testhelpers.SiteRows().AddRow(siteID.String(), "Alpha", "alpha.com", "online", nil, nil, fixedNow, fixedNow, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM connectors WHERE site_id = $1")).
		WithArgs(siteID).
		WillReturnRows(testhelpers.ConnectorRows().AddRow(
			uuid.NewString(), siteID.String(), "SearchConsole", []byte(`{"type":"service_account"}`),
			[]byte(`{"siteUrl":"sc-domain:alpha.com"}`), "active", nil, nil, fixedNow, fixedNow,
		))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), &models.ConnectorCreateRequest{
		SiteID:      siteID.String(),
		Type:        models.ConnectorSearchConsole,
		Credentials: json.RawMessage(`{"type":"service_account"}`),
		Config:      models.ConnectorConfig{SiteURL: "https://alpha.com/"},
	})
	require.ErrorIs(t, err, models.ErrDuplicateConnector)
}

func TestConnectorService_SyncDisabled(t *testing.T) {
	t.Parallel()

	store, _ := testhelpers.NewMockStore(t)
	svc := service.NewConnectorService(store, nil, testhelpers.NewTestLogger())

	_, err := svc.Sync(context.Background(), uuid.New())
	require.Error(t, err)
}
