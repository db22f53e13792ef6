package testhelpers

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
)

// NewMockStore returns a Store backed by sqlmock. Expectations are checked
// when the test ends.
func NewMockStore(t *testing.T) (*repository.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if expErr := mock.ExpectationsWereMet(); expErr != nil {
			t.Errorf("unmet sqlmock expectations: %v", expErr)
		}
		db.Close()
	})

	return repository.NewStore(sqlx.NewDb(db, "postgres"), NewTestLogger()), mock
}

// SiteRows starts a result set with the sites columns.
func SiteRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "domain", "status", "category_id", "platform", "created_at", "updated_at", "deleted_at",
	})
}

// BacklinkSiteRows starts a result set with the columns services read from
// backlink_sites. Unlisted columns scan as zero values.
func BacklinkSiteRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "url", "domain", "dr", "note", "is_favorite", "importance_score"})
}

// ConnectorRows starts a result set with the connectors columns.
func ConnectorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "site_id", "type", "credentials", "config", "status", "last_sync_at", "last_error",
		"created_at", "updated_at",
	})
}
