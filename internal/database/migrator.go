package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded SQL files once each, in file name order,
// recording every applied file in schema_migrations.
type Migrator struct {
	db     *sqlx.DB
	files  fs.FS
	logger *logrus.Logger
}

func NewMigrator(db *sqlx.DB, logger *logrus.Logger) *Migrator {
	sub, _ := fs.Sub(migrationsFS, "migrations")
	return &Migrator{db: db, files: sub, logger: logger}
}

func (m *Migrator) Run(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := m.migrationNames()
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, name := range names {
		applied, err := m.isMigrationApplied(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			m.logger.WithField("migration", name).Debug("Migration already applied, skipping")
			continue
		}

		migrationSQL, err := fs.ReadFile(m.files, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		m.logger.WithField("migration", name).Info("Applying migration")

		// MySQL commits DDL implicitly, so each file is applied and then recorded.
		if _, err := m.db.ExecContext(ctx, string(migrationSQL)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (name, applied_at) VALUES (?, NOW())",
			name,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
	}

	return nil
}

func (m *Migrator) migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) NOT NULL PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) isMigrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM schema_migrations WHERE name = ?", name)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
