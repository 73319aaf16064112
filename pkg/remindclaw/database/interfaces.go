// Package database opens the configured SQL backend and implements the
// reminder store on top of it. SQLite is the default backend and needs no
// configuration; PostgreSQL is available for shared deployments.
package database

import (
	"context"
	"database/sql"
	"io"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/database/backends"
)

// BackendType identifies the type of database backend.
type BackendType string

const (
	BackendSQLite     BackendType = "sqlite"
	BackendPostgreSQL BackendType = "postgresql"
)

// HealthStatus is the health of a backend connection pool.
type HealthStatus = backends.HealthStatus

// Backend is an open database with its schema and health tooling.
type Backend struct {
	Type    BackendType
	DB      *sql.DB
	Dialect backends.Dialect

	Migrator Migrator
	Health   HealthChecker

	// closer is the driver-specific backend that owns DB.
	closer io.Closer
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return b.DB.Close()
}

// Migrator applies schema migrations.
type Migrator interface {
	// CurrentVersion returns the current schema version.
	CurrentVersion(ctx context.Context) (int, error)

	// Migrate applies migrations up to the target version.
	// If target is 0, migrates to the latest version.
	Migrate(ctx context.Context, target int) error

	// NeedsMigration returns true if the schema is outdated.
	NeedsMigration(ctx context.Context) (bool, error)
}

// HealthChecker monitors database health.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Status(ctx context.Context) HealthStatus
}

// BackendFactory creates database backends based on configuration.
type BackendFactory interface {
	Create(config Config) (*Backend, error)
	Supports(backendType BackendType) bool
}
