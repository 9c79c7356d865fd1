package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Three independent collections keyed by opaque string IDs. Questions and
// feedback are stored as JSON documents; there is no cross-table enforcement
// beyond application-level checks.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		exam_type TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		questions TEXT NOT NULL,
		pdf_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exams_owner ON exams(owner_id);

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		score REAL NOT NULL,
		correct_answers INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		feedback TEXT NOT NULL,
		submitted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_user ON results(user_id);
	CREATE INDEX IF NOT EXISTS idx_results_exam ON results(exam_id);
	`
	_, err := s.db.Exec(schema)
	return err
}
