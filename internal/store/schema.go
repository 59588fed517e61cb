package store

import "fmt"

type migration struct {
	version     int
	description string
	statements  string
}

// Schema changes are additive only. Never edit an applied migration; append
// a new version instead.
var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		statements: `
CREATE TABLE IF NOT EXISTS verses (
	book_id INTEGER NOT NULL,
	chapter INTEGER NOT NULL,
	verse INTEGER NOT NULL,
	text TEXT NOT NULL,
	testament TEXT NOT NULL DEFAULT '',
	book_name TEXT NOT NULL DEFAULT '',
	downloaded_at DATETIME NOT NULL,
	last_accessed_at DATETIME NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (book_id, chapter, verse)
);

CREATE INDEX IF NOT EXISTS idx_verses_testament ON verses(testament);
CREATE INDEX IF NOT EXISTS idx_verses_last_accessed ON verses(last_accessed_at);

CREATE TABLE IF NOT EXISTS offline_content (
	id TEXT PRIMARY KEY,
	book_id INTEGER NOT NULL,
	book_name TEXT NOT NULL DEFAULT '',
	testament TEXT NOT NULL DEFAULT '',
	chapter INTEGER,
	verses_loaded INTEGER NOT NULL DEFAULT 0,
	verses_expected INTEGER NOT NULL DEFAULT 0,
	complete BOOLEAN NOT NULL DEFAULT 0,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	downloaded_at DATETIME NOT NULL,
	last_accessed_at DATETIME NOT NULL
);

-- One record per logical unit: a chapter, or the whole book (chapter NULL)
CREATE UNIQUE INDEX IF NOT EXISTS idx_content_unit ON offline_content(book_id, IFNULL(chapter, -1));
CREATE INDEX IF NOT EXISTS idx_content_book ON offline_content(book_id);
CREATE INDEX IF NOT EXISTS idx_content_last_accessed ON offline_content(last_accessed_at);

CREATE TABLE IF NOT EXISTS download_tasks (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	book_id INTEGER NOT NULL,
	book_name TEXT NOT NULL DEFAULT '',
	chapter INTEGER NOT NULL DEFAULT 0,
	verse_start INTEGER NOT NULL DEFAULT 0,
	verse_end INTEGER NOT NULL DEFAULT 0,
	progress REAL NOT NULL DEFAULT 0,
	items_done INTEGER NOT NULL DEFAULT 0,
	items_total INTEGER NOT NULL DEFAULT 0,
	retry_count INTEGER NOT NULL DEFAULT 0,
	background BOOLEAN NOT NULL DEFAULT 0,
	error TEXT,
	created_at DATETIME NOT NULL,
	started_at DATETIME,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON download_tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_created ON download_tasks(created_at);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`,
	},
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

func (db *DB) migrate() error {
	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.Get(&current, "SELECT IFNULL(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.statements); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, description) VALUES (?, ?)", m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
