package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/testhelpers"
)

func TestEvaluationService_CreateDefaultsOverall(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	svc := service.NewEvaluationService(store, nil, testhelpers.NewTestLogger(), clock)
	siteID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sites WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(siteID).
		WillReturnRows(testhelpers.SiteRows().AddRow(siteID.String(), "Alpha", "alpha.com", "online", nil, nil, fixedNow, fixedNow, nil))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO evaluations")).
		WithArgs(sqlmock.AnyArg(), siteID, sqlmock.AnyArg(), 60, 70, 80, 90, 100, 80,
			nil, sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id", "overall_score"}).
			AddRow(uuid.NewString(), siteID.String(), 80))

	created, err := svc.Create(context.Background(), siteID, &models.EvaluationCreateRequest{
		MarketScore: 60, QualityScore: 70, SEOScore: 80, TrafficScore: 90, RevenueScore: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 80, created.OverallScore)
}

func TestEvaluationService_CreateRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	store, _ := testhelpers.NewMockStore(t)
	svc := service.NewEvaluationService(store, nil, testhelpers.NewTestLogger(), clock)

	_, err := svc.Create(context.Background(), uuid.New(), &models.EvaluationCreateRequest{SEOScore: 120})
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "seoScore", vErr.Field)
}

func TestEvaluationService_Leaderboard(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	svc := service.NewEvaluationService(store, nil, testhelpers.NewTestLogger(), clock)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT DISTINCT ON \(e.site_id\)`).
		WillReturnRows(sqlmock.NewRows([]string{"site_id", "date", "seo_score", "site_name"}).
			AddRow(a.String(), fixedNow, 70, "Alpha").
			AddRow(b.String(), fixedNow, 90, "Beta").
			AddRow(c.String(), fixedNow, 70, "Gamma"))

	result, err := svc.Leaderboard(context.Background(), "seo", 1, 20)
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, "Beta", result.Entries[0].SiteName)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "Alpha", result.Entries[1].SiteName)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, 2, result.Entries[2].Rank)
}

func TestEvaluationService_LeaderboardUnknownDimension(t *testing.T) {
	t.Parallel()

	store, mock := testhelpers.NewMockStore(t)
	svc := service.NewEvaluationService(store, nil, testhelpers.NewTestLogger(), clock)
	mock.ExpectQuery(`SELECT DISTINCT ON`).WillReturnRows(sqlmock.NewRows([]string{"site_id"}))

	_, err := svc.Leaderboard(context.Background(), "popularity", 1, 20)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "dimension", vErr.Field)
}
