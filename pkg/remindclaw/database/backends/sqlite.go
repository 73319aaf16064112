package backends

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the dialect for mattn/go-sqlite3.
var SQLite = Dialect{
	Name:         "sqlite",
	VersionQuery: "SELECT sqlite_version()",
	versionTable: `
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	migrations: []string{
		`
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id  TEXT PRIMARY KEY,
    timezone TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reminders (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    position   INTEGER NOT NULL,
    due        REAL NOT NULL,
    text       TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id, position);
CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(due);
`,
	},
}

// SQLiteBackend is an open SQLite database.
type SQLiteBackend struct {
	DB     *sql.DB
	Config SQLiteConfig

	Migrator *Migrator
	Health   *HealthChecker
}

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	Path        string
	JournalMode string
	BusyTimeout int
}

// OpenSQLite opens or creates the database file at config.Path. Transactions
// begin IMMEDIATE so concurrent read-modify-write updates serialize on the
// database write lock instead of failing on upgrade.
func OpenSQLite(config SQLiteConfig) (*SQLiteBackend, error) {
	if config.Path == "" {
		config.Path = "./data/remindclaw.db"
	}
	if config.JournalMode == "" {
		config.JournalMode = "WAL"
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5000
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_busy_timeout=%d&_txlock=immediate",
		config.Path, config.JournalMode, config.BusyTimeout)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", config.Path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteBackend{
		DB:       db,
		Config:   config,
		Migrator: NewMigrator(db, SQLite),
		Health:   NewHealthChecker(db, SQLite.VersionQuery),
	}, nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.DB.Close()
}
