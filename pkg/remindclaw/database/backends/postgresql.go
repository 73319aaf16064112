package backends

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// PostgreSQL is the dialect for the pgx stdlib driver.
var PostgreSQL = Dialect{
	Name:           "postgresql",
	NumberedParams: true,
	RowLocks:       true,
	VersionQuery:   "SELECT version()",
	versionTable: `
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	migrations: []string{
		`
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id  TEXT PRIMARY KEY,
    timezone TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reminders (
    id         UUID PRIMARY KEY,
    user_id    TEXT NOT NULL,
    position   INTEGER NOT NULL,
    due        DOUBLE PRECISION NOT NULL,
    text       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id, position);
CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(due);
`,
	},
}

// PostgreSQLBackend is an open PostgreSQL connection pool.
type PostgreSQLBackend struct {
	DB     *sql.DB
	Config PostgreSQLConfig

	Migrator *Migrator
	Health   *HealthChecker
}

// PostgreSQLConfig holds PostgreSQL-specific configuration. URL, when set,
// takes precedence over the discrete connection fields.
type PostgreSQLConfig struct {
	URL             string
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// OpenPostgreSQL connects to PostgreSQL and verifies the connection.
func OpenPostgreSQL(config PostgreSQLConfig, logger *slog.Logger) (*PostgreSQLBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 5432
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = 30 * time.Minute
	}
	if config.ConnMaxIdleTime == 0 {
		config.ConnMaxIdleTime = 5 * time.Minute
	}

	db, err := sql.Open("pgx", buildPostgreSQLDSN(config))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Debug("postgresql connected", "host", config.Host, "database", config.Database)

	return &PostgreSQLBackend{
		DB:       db,
		Config:   config,
		Migrator: NewMigrator(db, PostgreSQL),
		Health:   NewHealthChecker(db, PostgreSQL.VersionQuery),
	}, nil
}

func buildPostgreSQLDSN(config PostgreSQLConfig) string {
	if config.URL != "" {
		return config.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode)
}

// Close closes the connection pool.
func (b *PostgreSQLBackend) Close() error {
	return b.DB.Close()
}
