package database

import (
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/example/wordwise/internal/config"
)

// Connect opens the configured database and creates the schema
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Type {
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to postgres")
		}
		return db, initializeSchema(db)
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrap(err, "failed to create data directory")
			}
		}
		return OpenSQLite(cfg.Path)
	}
	return nil, errors.Errorf("unsupported database type %q", cfg.Type)
}

// OpenSQLite opens a SQLite database at path (":memory:" works) and creates the schema
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	// SQLite doesn't support multiple writers; one connection also keeps :memory: alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			kind TEXT NOT NULL,
			source_text TEXT NOT NULL,
			target_text TEXT NOT NULL,
			pos TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL,
			difficulty_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (kind, source_text)
		)`},
	{"items level index", `CREATE INDEX IF NOT EXISTS idx_items_kind_level ON items (kind, level)`},
	{"item_stats", `
		CREATE TABLE IF NOT EXISTS item_stats (
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			item_key TEXT NOT NULL,
			total_attempts INTEGER NOT NULL DEFAULT 0,
			correct_attempts INTEGER NOT NULL DEFAULT 0,
			wrong_attempts INTEGER NOT NULL DEFAULT 0,
			accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_attempted TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, kind, item_key)
		)`},
	{"level_stats", `
		CREATE TABLE IF NOT EXISTS level_stats (
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			level TEXT NOT NULL,
			total_questions INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_updated TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, kind, level)
		)`},
	{"aggregate_stats", `
		CREATE TABLE IF NOT EXISTS aggregate_stats (
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			total_sessions INTEGER NOT NULL DEFAULT 0,
			total_questions INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			average_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (learner_id, kind)
		)`},
	{"item_sets", `
		CREATE TABLE IF NOT EXISTS item_sets (
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			set_name TEXT NOT NULL,
			source_text TEXT NOT NULL,
			target_text TEXT NOT NULL,
			pos TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL,
			difficulty_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			added_at TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, kind, set_name, source_text)
		)`},
	{"session_checkpoints", `
		CREATE TABLE IF NOT EXISTS session_checkpoints (
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			session_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, kind)
		)`},
	{"session_results", `
		CREATE TABLE IF NOT EXISTS session_results (
			id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			mode TEXT NOT NULL,
			difficulty_mode TEXT NOT NULL,
			review BOOLEAN NOT NULL DEFAULT false,
			total_questions INTEGER NOT NULL,
			correct_count INTEGER NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`},
	{"session_results learner index", `CREATE INDEX IF NOT EXISTS idx_session_results_learner ON session_results (learner_id, kind, finished_at)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s", s.name)
		}
	}
	return nil
}
