package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/database/backends"
)

// SQLiteFactory creates SQLite backends.
type SQLiteFactory struct{}

// Create opens the SQLite database described by config.
func (f *SQLiteFactory) Create(config Config) (*Backend, error) {
	b, err := backends.OpenSQLite(backends.SQLiteConfig{
		Path:        config.SQLite.Path,
		JournalMode: config.SQLite.JournalMode,
		BusyTimeout: config.SQLite.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{
		Type:     BackendSQLite,
		DB:       b.DB,
		Dialect:  backends.SQLite,
		Migrator: b.Migrator,
		Health:   b.Health,
		closer:   b,
	}, nil
}

// Supports returns true for the SQLite backend type.
func (f *SQLiteFactory) Supports(backendType BackendType) bool {
	return backendType == BackendSQLite
}

// PostgreSQLFactory creates PostgreSQL backends.
type PostgreSQLFactory struct {
	logger *slog.Logger
}

// NewPostgreSQLFactory creates a PostgreSQL factory.
func NewPostgreSQLFactory(logger *slog.Logger) *PostgreSQLFactory {
	return &PostgreSQLFactory{logger: logger}
}

// Create connects to the PostgreSQL server described by config.
func (f *PostgreSQLFactory) Create(config Config) (*Backend, error) {
	pg := config.PostgreSQL
	b, err := backends.OpenPostgreSQL(backends.PostgreSQLConfig{
		URL:             pg.URL,
		Host:            pg.Host,
		Port:            pg.Port,
		Database:        pg.Database,
		User:            pg.User,
		Password:        pg.Password,
		SSLMode:         pg.SSLMode,
		MaxOpenConns:    pg.MaxOpenConns,
		MaxIdleConns:    pg.MaxIdleConns,
		ConnMaxLifetime: pg.ConnMaxLifetime,
		ConnMaxIdleTime: pg.ConnMaxIdleTime,
	}, f.logger)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Type:     BackendPostgreSQL,
		DB:       b.DB,
		Dialect:  backends.PostgreSQL,
		Migrator: b.Migrator,
		Health:   b.Health,
		closer:   b,
	}, nil
}

// Supports returns true for the PostgreSQL backend type.
func (f *PostgreSQLFactory) Supports(backendType BackendType) bool {
	return backendType == BackendPostgreSQL
}

// Open creates the configured backend and migrates it to the latest schema.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := config.Effective()

	factories := []BackendFactory{&SQLiteFactory{}, NewPostgreSQLFactory(logger)}

	var factory BackendFactory
	for _, f := range factories {
		if f.Supports(cfg.Backend) {
			factory = f
			break
		}
	}
	if factory == nil {
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Backend)
	}

	backend, err := factory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", cfg.Backend, err)
	}

	if err := backend.Migrator.Migrate(ctx, 0); err != nil {
		backend.Close()
		return nil, err
	}

	version, _ := backend.Migrator.CurrentVersion(ctx)
	logger.Info("database ready", "backend", cfg.Backend, "schema_version", version)
	return backend, nil
}
