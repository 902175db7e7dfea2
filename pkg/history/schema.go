package history

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the newest migration this build understands.
const SchemaVersion = 2

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  project_key TEXT NOT NULL,
  ts_utc TEXT NOT NULL,
  file_count INTEGER NOT NULL,
  component_count INTEGER NOT NULL,
  usage_count INTEGER NOT NULL,
  internal_count INTEGER NOT NULL,
  external_count INTEGER NOT NULL,
  native_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project_ts ON runs(project_key, ts_utc);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE runs ADD COLUMN failed_file_count INTEGER NOT NULL DEFAULT 0;
ALTER TABLE runs ADD COLUMN duration_ms INTEGER NOT NULL DEFAULT 0;
`,
	},
}

// EnsureSchema applies pending migrations, each in its own transaction.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
