package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/infrastructure/jwt"
	"github.com/huzhengnan/website-monitor-sub000/internal/api"
	"github.com/huzhengnan/website-monitor-sub000/internal/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
	"github.com/huzhengnan/website-monitor-sub000/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, cfg *config.Config) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	store, mock := testhelpers.NewMockStore(t)
	log := testhelpers.NewTestLogger()
	now := func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

	backlinks := service.NewBacklinkService(store, nil, nil, nil, log, now)
	recomputer := service.NewRecomputer(store, 0, nil, nil, log)
	t.Cleanup(recomputer.Close)

	svc := api.Services{
		Sites:       service.NewSiteService(store, nil, log),
		Metrics:     service.NewMetricsService(store, scoring.NewScorer(scoring.DefaultCalibration()), log, now),
		Evaluations: service.NewEvaluationService(store, nil, log, now),
		Backlinks:   backlinks,
		Submissions: service.NewSubmissionService(store, backlinks, log, now),
		Connectors:  service.NewConnectorService(store, nil, log),
		Recomputer:  recomputer,
		Exporter:    service.NewExporter(store),
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	router := gin.New()
	api.NewRouter(svc, cfg, telemetry.New(), log).RegisterRoutes(router)
	return router, mock
}

func do(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetSite_InvalidID(t *testing.T) {
	t.Parallel()

	router, _ := setupRouter(t, nil)
	w := do(router, http.MethodGet, "/api/v1/sites/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid site ID format", decode(t, w)["error"])
}

func TestGetSite_NotFound(t *testing.T) {
	t.Parallel()

	router, mock := setupRouter(t, nil)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sites WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(id).
		WillReturnRows(testhelpers.SiteRows())

	w := do(router, http.MethodGet, "/api/v1/sites/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "site not found", decode(t, w)["error"])
}

func TestCreateSite_ValidationError(t *testing.T) {
	t.Parallel()

	router, _ := setupRouter(t, nil)
	w := do(router, http.MethodPost, "/api/v1/sites", map[string]any{"name": "  ", "domain": "a.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decode(t, w)["field"])
}

func TestBatchMetrics_SelectorRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{name: "neither selector", query: "?days=7"},
		{name: "both selectors", query: "?siteIds=" + uuid.NewString() + "&page=1"},
		{name: "non-numeric days", query: "?days=abc&page=1"},
		{name: "days out of range", query: "?days=0&page=1"},
		{name: "bad site id", query: "?siteIds=nope"},
		{name: "page size too large", query: "?page=1&pageSize=101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, _ := setupRouter(t, nil)
			w := do(router, http.MethodGet, "/api/v1/sites/metrics"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLeaderboard_UnknownDimension(t *testing.T) {
	t.Parallel()

	router, mock := setupRouter(t, nil)
	mock.ExpectQuery(`SELECT DISTINCT ON`).WillReturnRows(sqlmock.NewRows([]string{"site_id"}))

	w := do(router, http.MethodGet, "/api/v1/leaderboard?dimension=popularity", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "dimension", decode(t, w)["field"])
}

func TestCreateBacklinkSite_Statuses(t *testing.T) {
	t.Parallel()

	t.Run("exact duplicate is a conflict", func(t *testing.T) {
		t.Parallel()

		router, mock := setupRouter(t, nil)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE url = $1")).
			WithArgs("https://links.dev").
			WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(uuid.NewString(), "https://links.dev", "links.dev", nil, nil, false, 0))
		mock.ExpectRollback()

		w := do(router, http.MethodPost, "/api/v1/backlink-sites", map[string]any{"url": "links.dev"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("new site is created", func(t *testing.T) {
		t.Parallel()

		router, mock := setupRouter(t, nil)
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE url = $1")).
			WithArgs("https://links.dev").
			WillReturnRows(testhelpers.BacklinkSiteRows())
		mock.ExpectQuery(regexp.QuoteMeta("FROM backlink_sites WHERE domain = $1")).
			WithArgs("links.dev").
			WillReturnRows(testhelpers.BacklinkSiteRows())
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO backlink_sites")).
			WillReturnRows(testhelpers.BacklinkSiteRows().AddRow(id.String(), "https://links.dev", "links.dev", nil, nil, false, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM backlink_submissions WHERE backlink_site_id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectCommit()

		w := do(router, http.MethodPost, "/api/v1/backlink-sites", map[string]any{"url": "links.dev"})

		require.Equal(t, http.StatusCreated, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["merged"])
	})
}

func TestStartRecompute_InvalidResumeID(t *testing.T) {
	t.Parallel()

	router, _ := setupRouter(t, nil)
	w := do(router, http.MethodPost, "/api/v1/backlink-sites/recompute-importance", map[string]any{"resumeJobId": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "resumeJobId", decode(t, w)["field"])
}

func TestListSubmissions_InvalidStatus(t *testing.T) {
	t.Parallel()

	router, _ := setupRouter(t, nil)
	w := do(router, http.MethodGet, "/api/v1/submissions?status=lost", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectorSync_Disabled(t *testing.T) {
	t.Parallel()

	router, _ := setupRouter(t, nil)
	w := do(router, http.MethodPost, "/api/v1/connectors/"+uuid.NewString()+"/sync", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Failed to sync connector", body["error"])
	assert.NotContains(t, body, "details")
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret"}}
	router, mock := setupRouter(t, cfg)

	w := do(router, http.MethodGet, "/api/v1/sites/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.IssueToken("test-secret", "admin", time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sites WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(testhelpers.SiteRows())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites/"+id.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
