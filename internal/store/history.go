// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

// LogSearch appends a search log row and returns its id. Logged before the
// result papers are upserted, so provenance is never orphaned.
func (s *Store) LogSearch(ctx context.Context, query, searchType string, resultsCount int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (query, search_type, results_count, created_at)
		 VALUES (?, ?, ?, ?)`,
		query, searchType, resultsCount, formatTime(now()))
	if err != nil {
		return 0, fmt.Errorf("logging search %q: %w", query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading search log id: %w", err)
	}
	return id, nil
}

// LinkPaperToSearch records that a search surfaced a paper. Links are never
// deduplicated: a paper found by several queries keeps every provenance row.
func (s *Store) LinkPaperToSearch(ctx context.Context, paperID string, searchLogID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO paper_query_sources (paper_id, search_log_id, created_at)
		 VALUES (?, ?, ?)`,
		paperID, searchLogID, formatTime(now()))
	if err != nil {
		return fmt.Errorf("linking paper %s to search %d: %w", paperID, searchLogID, err)
	}
	return nil
}

// SearchLogs returns all search log rows in insertion order.
func (s *Store) SearchLogs(ctx context.Context) ([]types.SearchLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, search_type, results_count, created_at FROM search_logs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying search logs: %w", err)
	}
	defer rows.Close()

	var logs []types.SearchLog
	for rows.Next() {
		var (
			l       types.SearchLog
			created string
		)
		if err := rows.Scan(&l.ID, &l.Query, &l.SearchType, &l.ResultsCount, &created); err != nil {
			return nil, fmt.Errorf("scanning search log: %w", err)
		}
		l.CreatedAt = parseTime(created)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// AddConcepts appends extracted concept rows for a paper. Concepts are a log
// of extraction events, not a set: re-extraction adds rows.
func (s *Store) AddConcepts(ctx context.Context, paperID string, concepts []string) error {
	if len(concepts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO paper_concepts (paper_id, concept, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing concept insert: %w", err)
	}
	defer stmt.Close()

	ts := formatTime(now())
	for _, concept := range concepts {
		if concept == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, paperID, concept, ts); err != nil {
			return fmt.Errorf("inserting concept for %s: %w", paperID, err)
		}
	}
	return tx.Commit()
}

// Concepts returns all concept rows for a paper in extraction order.
func (s *Store) Concepts(ctx context.Context, paperID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT concept FROM paper_concepts WHERE paper_id = ? ORDER BY id`, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying concepts for %s: %w", paperID, err)
	}
	defer rows.Close()

	var concepts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning concept: %w", err)
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

// AddEvaluation appends a support evaluation row. Evaluations are append-only
// re-evaluation history; the current value is the most recent row.
func (s *Store) AddEvaluation(ctx context.Context, paperID string, supportLevel int, reasoning string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO paper_evaluations (paper_id, support_level, reasoning, created_at)
		 VALUES (?, ?, ?, ?)`,
		paperID, supportLevel, reasoning, formatTime(now()))
	if err != nil {
		return fmt.Errorf("inserting evaluation for %s: %w", paperID, err)
	}
	return nil
}

// LatestEvaluation returns the most recent evaluation row for a paper, or
// sql.ErrNoRows wrapped if none exists.
func (s *Store) LatestEvaluation(ctx context.Context, paperID string) (types.Evaluation, error) {
	var (
		e       types.Evaluation
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, paper_id, support_level, reasoning, created_at
		 FROM paper_evaluations WHERE paper_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`, paperID,
	).Scan(&e.ID, &e.PaperID, &e.SupportLevel, &e.Reasoning, &created)
	if err == sql.ErrNoRows {
		return types.Evaluation{}, fmt.Errorf("no evaluation for %s: %w", paperID, err)
	}
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("reading evaluation for %s: %w", paperID, err)
	}
	e.CreatedAt = parseTime(created)
	return e, nil
}

// PapersWithSupport is the export view: papers joined with their latest
// evaluation, filtered to latest support_level >= threshold. Papers with no
// evaluation are excluded.
func (s *Store) PapersWithSupport(ctx context.Context, threshold float64) ([]types.PaperSupport, error) {
	const cols = `p.paper_id, p.title, p.abstract, p.authors, p.year, p.venue,
		p.journal, p.citation_count, p.reference_count, p.is_open_access,
		p.url, p.pdf_url, p.state, p.created_at, p.updated_at`
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cols+`, e.support_level, e.reasoning, e.created_at
		 FROM papers p
		 JOIN paper_evaluations e ON e.id = (
			SELECT id FROM paper_evaluations
			WHERE paper_id = p.paper_id
			ORDER BY created_at DESC, id DESC LIMIT 1
		 )
		 WHERE e.support_level >= ?
		 ORDER BY e.support_level DESC, p.paper_id`, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying papers with support: %w", err)
	}
	defer rows.Close()

	var results []types.PaperSupport
	for rows.Next() {
		ps, err := scanPaperSupport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, ps)
	}
	return results, rows.Err()
}

func scanPaperSupport(rows *sql.Rows) (types.PaperSupport, error) {
	var (
		ps          types.PaperSupport
		authorsJSON string
		openAccess  int
		state       string
		created     string
		updated     string
		evaluated   string
	)
	err := rows.Scan(
		&ps.PaperID, &ps.Title, &ps.Abstract, &authorsJSON, &ps.Year,
		&ps.Venue, &ps.Journal, &ps.CitationCount, &ps.ReferenceCount,
		&openAccess, &ps.URL, &ps.PDFURL, &state, &created, &updated,
		&ps.SupportLevel, &ps.Reasoning, &evaluated,
	)
	if err != nil {
		return types.PaperSupport{}, fmt.Errorf("scanning paper support: %w", err)
	}
	json.Unmarshal([]byte(authorsJSON), &ps.Authors)
	ps.IsOpenAccess = openAccess != 0
	ps.State = types.PaperState(state)
	ps.CreatedAt = parseTime(created)
	ps.UpdatedAt = parseTime(updated)
	ps.EvaluatedAt = parseTime(evaluated)
	return ps, nil
}
