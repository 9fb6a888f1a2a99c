// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives finished search sessions so past runs can be
// listed and their methodology reports regenerated.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

const dbFile = "orchestra.db"

// Store manages the session archive SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at dir/orchestra.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			query TEXT,
			papers_found INTEGER,
			raw_paper_count INTEGER,
			duplicates_removed INTEGER,
			sources_total INTEGER,
			sources_complete INTEGER,
			elapsed_ms INTEGER,
			semantic_tier TEXT,
			quality INTEGER,
			started_at TEXT,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_finished_at ON sessions(finished_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives one finished session. Saving the same session id again
// overwrites the previous row, so re-ingesting a completed run is harmless.
func (s *Store) Save(m types.SearchMetrics) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions
		 (id, query, papers_found, raw_paper_count, duplicates_removed,
		  sources_total, sources_complete, elapsed_ms, semantic_tier, quality,
		  started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.Query, m.PapersFound, m.RawPaperCount, m.DuplicatesRemoved,
		m.SourcesTotal, m.SourcesComplete, m.ElapsedMs, string(m.SemanticTier), m.Quality,
		m.StartedAt.UTC().Format(time.RFC3339), m.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", m.SessionID, err)
	}
	return nil
}

// List returns the most recently finished sessions, newest first.
func (s *Store) List(limit int) ([]types.SearchMetrics, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, query, papers_found, raw_paper_count, duplicates_removed,
		        sources_total, sources_complete, elapsed_ms, semantic_tier, quality,
		        started_at, finished_at
		 FROM sessions ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []types.SearchMetrics
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns one archived session by id.
func (s *Store) Get(id string) (types.SearchMetrics, error) {
	row := s.db.QueryRow(
		`SELECT id, query, papers_found, raw_paper_count, duplicates_removed,
		        sources_total, sources_complete, elapsed_ms, semantic_tier, quality,
		        started_at, finished_at
		 FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (types.SearchMetrics, error) {
	var m types.SearchMetrics
	var tier, started, finished string
	err := r.Scan(&m.SessionID, &m.Query, &m.PapersFound, &m.RawPaperCount,
		&m.DuplicatesRemoved, &m.SourcesTotal, &m.SourcesComplete, &m.ElapsedMs,
		&tier, &m.Quality, &started, &finished)
	if err != nil {
		return types.SearchMetrics{}, fmt.Errorf("scanning session row: %w", err)
	}
	m.SemanticTier = types.ParseSemanticTier(tier)
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		m.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, finished); err == nil {
		m.FinishedAt = t
	}
	return m, nil
}
