package database

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMigrator(t *testing.T, files fstest.MapFS) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Migrator{db: sqlx.NewDb(db, "sqlmock"), files: files, logger: logger}, mock
}

func TestMigratorAppliesPendingFilesInOrder(t *testing.T) {
	files := fstest.MapFS{
		"002_second.sql": {Data: []byte("ALTER TABLE a ADD COLUMN b INT")},
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INT)")},
		"README.md":      {Data: []byte("ignored")},
	}
	m, mock := newTestMigrator(t, files)

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM schema_migrations WHERE name = ?")
	insertQuery := regexp.QuoteMeta("INSERT INTO schema_migrations (name, applied_at) VALUES (?, NOW())")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(countQuery).WithArgs("001_first.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(countQuery).WithArgs("002_second.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE a ADD COLUMN b INT")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertQuery).WithArgs("002_second.sql").WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, m.Run(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorStopsOnFailedMigration(t *testing.T) {
	files := fstest.MapFS{
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INT)")},
		"002_second.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}
	m, mock := newTestMigrator(t, files)

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM schema_migrations WHERE name = ?")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(countQuery).WithArgs("001_first.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id INT)")).WillReturnError(errors.New("syntax error"))

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_first.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	m := NewMigrator(nil, logrus.New())
	names, err := m.migrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_create_projects_and_sites.sql",
		"002_sites_project_scoped_key.sql",
		"003_create_import_batches.sql",
		"004_create_audit_logs.sql",
	}, names)
}
