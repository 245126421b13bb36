// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

const paperColumns = `paper_id, title, abstract, authors, year, venue, journal,
	citation_count, reference_count, is_open_access, url, pdf_url,
	state, created_at, updated_at`

// UpsertPaper inserts the paper or merges it into the existing row under the
// no-clobber rule. It reports whether a new row was inserted, which callers
// use to account against the paper cap. The read-modify-write runs in one
// immediate transaction, so concurrent upserts to the same id serialize.
func (s *Store) UpsertPaper(ctx context.Context, p types.Paper) (inserted bool, err error) {
	if p.PaperID == "" {
		return false, fmt.Errorf("upserting paper: empty paper_id")
	}
	if p.State == "" {
		p.State = types.StateDiscovered
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanPaper(tx.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE paper_id = ?`, p.PaperID))

	ts := formatTime(now())
	switch {
	case err == sql.ErrNoRows:
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO papers (`+paperColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.PaperID, p.Title, p.Abstract, string(authorsJSON), p.Year,
			p.Venue, p.Journal, p.CitationCount, p.ReferenceCount,
			boolToInt(p.IsOpenAccess), p.URL, p.PDFURL, string(p.State), ts, ts,
		)
		if err != nil {
			return false, fmt.Errorf("inserting paper %s: %w", p.PaperID, err)
		}
		inserted = true

	case err != nil:
		return false, fmt.Errorf("reading paper %s: %w", p.PaperID, err)

	default:
		merged := mergePaper(existing, p)
		authorsJSON, _ := json.Marshal(merged.Authors)
		_, err = tx.ExecContext(ctx,
			`UPDATE papers SET title=?, abstract=?, authors=?, year=?, venue=?,
				journal=?, citation_count=?, reference_count=?, is_open_access=?,
				url=?, pdf_url=?, updated_at=?
			 WHERE paper_id=?`,
			merged.Title, merged.Abstract, string(authorsJSON), merged.Year,
			merged.Venue, merged.Journal, merged.CitationCount,
			merged.ReferenceCount, boolToInt(merged.IsOpenAccess),
			merged.URL, merged.PDFURL, ts, merged.PaperID,
		)
		if err != nil {
			return false, fmt.Errorf("updating paper %s: %w", p.PaperID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing paper %s: %w", p.PaperID, err)
	}
	return inserted, nil
}

// SetState updates a paper's lifecycle state.
func (s *Store) SetState(ctx context.Context, paperID string, state types.PaperState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE papers SET state=?, updated_at=? WHERE paper_id=?`,
		string(state), formatTime(now()), paperID)
	if err != nil {
		return fmt.Errorf("updating state for %s: %w", paperID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("paper %s not found", paperID)
	}
	return nil
}

// AddEdges stores reference and citation edges for a paper, creating
// placeholder rows (state discovered) for targets not yet known. Self-loops
// are skipped. maxPlaceholders caps how many placeholder rows may be created
// (negative means no cap); once spent, edges to unknown targets are dropped
// while edges to already-known papers are still recorded. It returns how many
// placeholder rows were created, which count against the paper cap.
func (s *Store) AddEdges(ctx context.Context, paperID string, references, citations []string, maxPlaceholders int) (placeholders int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ts := formatTime(now())
	insertEdge := func(table, target string) error {
		if target == "" || target == paperID {
			return nil
		}
		if maxPlaceholders >= 0 && placeholders >= maxPlaceholders {
			var one int
			err := tx.QueryRowContext(ctx,
				`SELECT 1 FROM papers WHERE paper_id = ?`, target).Scan(&one)
			if err == sql.ErrNoRows {
				return nil
			}
			if err != nil {
				return fmt.Errorf("checking edge target %s: %w", target, err)
			}
		} else {
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO papers (paper_id, state, created_at, updated_at)
				 VALUES (?, ?, ?, ?)`,
				target, string(types.StateDiscovered), ts, ts)
			if err != nil {
				return fmt.Errorf("inserting placeholder %s: %w", target, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				placeholders++
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` VALUES (?, ?)`, paperID, target); err != nil {
			return fmt.Errorf("inserting edge %s -> %s: %w", paperID, target, err)
		}
		return nil
	}

	for _, ref := range references {
		if err := insertEdge("paper_references", ref); err != nil {
			return 0, err
		}
	}
	for _, cit := range citations {
		if err := insertEdge("paper_citations", cit); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing edges for %s: %w", paperID, err)
	}
	return placeholders, nil
}

// GetPaper returns a single paper by id.
func (s *Store) GetPaper(ctx context.Context, paperID string) (types.Paper, error) {
	p, err := scanPaper(s.db.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE paper_id = ?`, paperID))
	if err == sql.ErrNoRows {
		return types.Paper{}, fmt.Errorf("paper %s not found", paperID)
	}
	if err != nil {
		return types.Paper{}, fmt.Errorf("reading paper %s: %w", paperID, err)
	}
	return p, nil
}

// Papers returns all paper rows ordered by creation time.
func (s *Store) Papers(ctx context.Context) ([]types.Paper, error) {
	return s.queryPapers(ctx,
		`SELECT `+paperColumns+` FROM papers ORDER BY created_at, paper_id`)
}

// PapersByState returns papers in the given lifecycle state.
func (s *Store) PapersByState(ctx context.Context, state types.PaperState) ([]types.Paper, error) {
	return s.queryPapers(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE state = ? ORDER BY created_at, paper_id`,
		string(state))
}

// PapersWithAbstracts returns papers that have abstracts, for the evaluator.
func (s *Store) PapersWithAbstracts(ctx context.Context) ([]types.Paper, error) {
	return s.queryPapers(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE abstract != '' ORDER BY created_at, paper_id`)
}

// PapersMissingMetadata returns papers lacking an abstract or venue, the
// candidates for the enrichment pass.
func (s *Store) PapersMissingMetadata(ctx context.Context) ([]types.Paper, error) {
	return s.queryPapers(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE abstract = '' OR venue = ''
		 ORDER BY created_at, paper_id`)
}

// References returns all reference edges.
func (s *Store) References(ctx context.Context) ([]types.Edge, error) {
	return s.queryEdges(ctx, `SELECT paper_id, reference_id FROM paper_references ORDER BY paper_id, reference_id`)
}

// Citations returns all citation edges.
func (s *Store) Citations(ctx context.Context) ([]types.Edge, error) {
	return s.queryEdges(ctx, `SELECT paper_id, citation_id FROM paper_citations ORDER BY paper_id, citation_id`)
}

func (s *Store) queryEdges(ctx context.Context, query string) ([]types.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []types.Edge
	for rows.Next() {
		var e types.Edge
		if err := rows.Scan(&e.SourceID, &e.TargetID); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *Store) queryPapers(ctx context.Context, query string, args ...any) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (types.Paper, error) {
	var (
		p           types.Paper
		authorsJSON string
		openAccess  int
		state       string
		created     string
		updated     string
	)
	err := row.Scan(
		&p.PaperID, &p.Title, &p.Abstract, &authorsJSON, &p.Year,
		&p.Venue, &p.Journal, &p.CitationCount, &p.ReferenceCount,
		&openAccess, &p.URL, &p.PDFURL, &state, &created, &updated,
	)
	if err != nil {
		return types.Paper{}, err
	}
	json.Unmarshal([]byte(authorsJSON), &p.Authors)
	p.IsOpenAccess = openAccess != 0
	p.State = types.PaperState(state)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
