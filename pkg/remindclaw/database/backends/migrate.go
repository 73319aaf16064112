package backends

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrator applies a dialect's versioned schema, one transaction per version.
type Migrator struct {
	db      *sql.DB
	dialect Dialect
}

// NewMigrator creates a migrator for db.
func NewMigrator(db *sql.DB, dialect Dialect) *Migrator {
	return &Migrator{db: db, dialect: dialect}
}

// CurrentVersion returns the highest applied version, 0 on a fresh database.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, m.dialect.versionTable); err != nil {
		return 0, fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Migrate applies pending migrations up to target. A target of 0 means the
// latest version.
func (m *Migrator) Migrate(ctx context.Context, target int) error {
	latest := m.dialect.Latest()
	if target <= 0 || target > latest {
		target = latest
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for v := current + 1; v <= target; v++ {
		if err := m.apply(ctx, v); err != nil {
			return fmt.Errorf("migrate %s schema to version %d: %w", m.dialect.Name, v, err)
		}
	}
	return nil
}

// NeedsMigration reports whether the schema is behind the latest version.
func (m *Migrator) NeedsMigration(ctx context.Context) (bool, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return false, err
	}
	return current < m.dialect.Latest(), nil
}

func (m *Migrator) apply(ctx context.Context, version int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.dialect.migrations[version-1]); err != nil {
		return err
	}
	record := m.dialect.Rebind("INSERT INTO schema_version (version) VALUES (?)")
	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		return err
	}
	return tx.Commit()
}
