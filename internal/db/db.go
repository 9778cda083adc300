package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hanul-clinic/clinicboard/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// FileName is the database file created under the base directory.
const FileName = "clinicboard.db"

// Init initializes the SQLite database at baseDir/clinicboard.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.clinicboard.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the connection string apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: categories and notices
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS categories (
		  id             INTEGER PRIMARY KEY AUTOINCREMENT,
		  slug           TEXT NOT NULL UNIQUE,
		  name           TEXT NOT NULL,
		  description_md TEXT NOT NULL DEFAULT '',
		  sort_order     INTEGER NOT NULL DEFAULT 0,
		  created_at     INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notices (
		  id             TEXT PRIMARY KEY,
		  category_id    INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		  title          TEXT NOT NULL,
		  content        TEXT,
		  content_format TEXT NOT NULL DEFAULT '',
		  html_content   TEXT NOT NULL DEFAULT '',
		  plain_text     TEXT NOT NULL DEFAULT '',
		  status         TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published')),
		  pinned         INTEGER NOT NULL DEFAULT 0,
		  view_count     INTEGER NOT NULL DEFAULT 0,
		  author         TEXT,
		  created_at     INTEGER NOT NULL,
		  updated_at     INTEGER NOT NULL,
		  published_at   INTEGER,
		  deleted_at     INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_notices_public
		ON notices(pinned DESC, published_at DESC)
		WHERE status = 'published' AND deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_notices_category
		ON notices(category_id, created_at DESC)
		WHERE deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_notices_deleted
		ON notices(deleted_at)
		WHERE deleted_at IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: full-text index over title and plain_text
	if version < 2 {
		schema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS notices_fts USING fts5(
		  notice_id UNINDEXED,
		  title,
		  plain_text,
		  tokenize = 'unicode61'
		);

		CREATE TRIGGER IF NOT EXISTS notices_fts_insert AFTER INSERT ON notices BEGIN
		  INSERT INTO notices_fts(notice_id, title, plain_text)
		  VALUES (new.id, new.title, new.plain_text);
		END;

		CREATE TRIGGER IF NOT EXISTS notices_fts_update AFTER UPDATE OF title, plain_text ON notices BEGIN
		  DELETE FROM notices_fts WHERE notice_id = old.id;
		  INSERT INTO notices_fts(notice_id, title, plain_text)
		  VALUES (new.id, new.title, new.plain_text);
		END;

		CREATE TRIGGER IF NOT EXISTS notices_fts_delete AFTER DELETE ON notices BEGIN
		  DELETE FROM notices_fts WHERE notice_id = old.id;
		END;

		INSERT INTO notices_fts(notice_id, title, plain_text)
		SELECT id, title, plain_text FROM notices;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
