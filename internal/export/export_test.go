// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "discovery.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	papers := []types.Paper{
		{PaperID: "p1", Title: "Strong Support", Abstract: "A.", Authors: []string{"Smith, J.", "Doe, A."}, Year: 2022},
		{PaperID: "p2", Title: "Weak Support", Abstract: "B.", Year: 2021},
		{PaperID: "p3", Title: "Never Evaluated", Abstract: "C.", Year: 2020},
	}
	for _, p := range papers {
		if _, err := s.UpsertPaper(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddEvaluation(ctx, "p1", 9, "central"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEvaluation(ctx, "p2", 3, "tangential"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEdges(ctx, "p1", []string{"p2"}, []string{"p3"}, -1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LogSearch(ctx, "query one", types.SearchTypeSeed, 3); err != nil {
		t.Fatal(err)
	}
	return s
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestRunCSV(t *testing.T) {
	s := seededStore(t)
	outDir := t.TempDir()
	e := &Exporter{Store: s, Config: types.ExportConfig{
		OutputDir:        outDir,
		SupportThreshold: 5,
		Format:           FormatCSV,
	}}

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Threshold 5 keeps only p1; edges and logs export in full.
	if res.Papers != 1 || res.References != 1 || res.Citations != 1 || res.SearchLogs != 1 {
		t.Errorf("result = %+v", res)
	}

	rows := readCSV(t, filepath.Join(res.Dir, "papers.csv"))
	if len(rows) != 2 {
		t.Fatalf("papers.csv rows = %d, want header + 1", len(rows))
	}
	header, row := rows[0], rows[1]
	cols := map[string]string{}
	for i, h := range header {
		cols[h] = row[i]
	}
	if cols["paper_id"] != "p1" || cols["support_level"] != "9" {
		t.Errorf("paper row = %v", cols)
	}
	if cols["authors"] != "Smith, J.; Doe, A." {
		t.Errorf("authors = %q", cols["authors"])
	}

	refs := readCSV(t, filepath.Join(res.Dir, "references.csv"))
	if len(refs) != 2 || refs[1][0] != "p1" || refs[1][1] != "p2" {
		t.Errorf("references.csv = %v", refs)
	}
	logs := readCSV(t, filepath.Join(res.Dir, "search_logs.csv"))
	if len(logs) != 2 || logs[1][1] != "query one" {
		t.Errorf("search_logs.csv = %v", logs)
	}
}

func TestRunJSON(t *testing.T) {
	s := seededStore(t)
	e := &Exporter{Store: s, Config: types.ExportConfig{
		OutputDir: t.TempDir(),
		Format:    FormatJSON,
	}}

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Threshold 0 includes both evaluated papers; p3 has no evaluation row.
	if res.Papers != 2 {
		t.Errorf("papers = %d, want 2", res.Papers)
	}

	data, err := os.ReadFile(filepath.Join(res.Dir, "papers.json"))
	if err != nil {
		t.Fatal(err)
	}
	var papers []types.PaperSupport
	if err := json.Unmarshal(data, &papers); err != nil {
		t.Fatal(err)
	}
	if len(papers) != 2 {
		t.Fatalf("papers.json entries = %d, want 2", len(papers))
	}
	// Ordered by support level descending.
	if papers[0].PaperID != "p1" || papers[0].SupportLevel != 9 {
		t.Errorf("papers[0] = %+v", papers[0])
	}
}

func TestRunUnknownFormat(t *testing.T) {
	e := &Exporter{Store: seededStore(t), Config: types.ExportConfig{
		OutputDir: t.TempDir(),
		Format:    "xlsx",
	}}
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunDefaultsToCSV(t *testing.T) {
	e := &Exporter{Store: seededStore(t), Config: types.ExportConfig{OutputDir: t.TempDir()}}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(res.Dir, "papers.csv")); err != nil {
		t.Errorf("papers.csv missing: %v", err)
	}
}
