// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists discovered papers, their provenance, and their
// evaluations in a SQLite database.
//
// Paper rows are unique per paper_id and updated with a no-clobber merge:
// rediscovery may fill unknown fields but never blanks a known one. Search
// logs, query-source links, concepts, and evaluations are append-only
// history and grow across runs; only Reset deletes anything.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

// Store manages the paper discovery SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and bootstraps the schema.
// The connection uses WAL mode, immediate transactions, and a busy timeout
// so concurrent workers serialize cleanly on writes.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "discovery.db"
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
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

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			paper_id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			authors TEXT NOT NULL DEFAULT '[]',
			year INTEGER NOT NULL DEFAULT 0,
			venue TEXT NOT NULL DEFAULT '',
			journal TEXT NOT NULL DEFAULT '',
			citation_count INTEGER NOT NULL DEFAULT 0,
			reference_count INTEGER NOT NULL DEFAULT 0,
			is_open_access INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL DEFAULT '',
			pdf_url TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'discovered',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_state ON papers(state)`,
		`CREATE TABLE IF NOT EXISTS search_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			search_type TEXT NOT NULL,
			results_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paper_query_sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			search_log_id INTEGER NOT NULL REFERENCES search_logs(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_sources_paper ON paper_query_sources(paper_id)`,
		`CREATE TABLE IF NOT EXISTS paper_references (
			paper_id TEXT NOT NULL,
			reference_id TEXT NOT NULL,
			PRIMARY KEY (paper_id, reference_id)
		)`,
		`CREATE TABLE IF NOT EXISTS paper_citations (
			paper_id TEXT NOT NULL,
			citation_id TEXT NOT NULL,
			PRIMARY KEY (paper_id, citation_id)
		)`,
		`CREATE TABLE IF NOT EXISTS paper_concepts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			concept TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_concepts_paper ON paper_concepts(paper_id)`,
		`CREATE TABLE IF NOT EXISTS paper_evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			support_level INTEGER NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_paper ON paper_evaluations(paper_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Reset deletes all rows from every table. This is the only deletion path;
// normal operation never removes history.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"paper_evaluations", "paper_concepts", "paper_query_sources",
		"paper_references", "paper_citations", "search_logs", "papers",
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Stats holds row counts per table.
type Stats struct {
	Papers       int
	SearchLogs   int
	QuerySources int
	References   int
	Citations    int
	Concepts     int
	Evaluations  int
}

// CountPapers returns the total number of stored paper rows, placeholders
// included.
func (s *Store) CountPapers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// CountStats returns row counts for every table.
func (s *Store) CountStats(ctx context.Context) (Stats, error) {
	counts := map[string]*int{}
	var st Stats
	counts["papers"] = &st.Papers
	counts["search_logs"] = &st.SearchLogs
	counts["paper_query_sources"] = &st.QuerySources
	counts["paper_references"] = &st.References
	counts["paper_citations"] = &st.Citations
	counts["paper_concepts"] = &st.Concepts
	counts["paper_evaluations"] = &st.Evaluations

	for table, dst := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(dst); err != nil {
			return Stats{}, fmt.Errorf("counting %s: %w", table, err)
		}
	}
	return st, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
