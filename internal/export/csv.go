// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

func writePapersCSV(f io.Writer, papers []types.PaperSupport) error {
	w := csv.NewWriter(f)
	header := []string{
		"paper_id", "title", "abstract", "authors", "year", "venue", "journal",
		"citation_count", "reference_count", "is_open_access", "url", "pdf_url",
		"state", "support_level", "reasoning", "evaluated_at",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range papers {
		row := []string{
			p.PaperID,
			p.Title,
			p.Abstract,
			strings.Join(p.Authors, "; "),
			strconv.Itoa(p.Year),
			p.Venue,
			p.Journal,
			strconv.Itoa(p.CitationCount),
			strconv.Itoa(p.ReferenceCount),
			strconv.FormatBool(p.IsOpenAccess),
			p.URL,
			p.PDFURL,
			string(p.State),
			strconv.Itoa(p.SupportLevel),
			p.Reasoning,
			p.EvaluatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeEdgesCSV(f io.Writer, edges []types.Edge) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"source_id", "target_id"}); err != nil {
		return err
	}
	for _, e := range edges {
		if err := w.Write([]string{e.SourceID, e.TargetID}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSearchLogsCSV(f io.Writer, logs []types.SearchLog) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "query", "search_type", "results_count"}); err != nil {
		return err
	}
	for _, l := range logs {
		row := []string{
			l.CreatedAt.Format(time.RFC3339),
			l.Query,
			l.SearchType,
			strconv.Itoa(l.ResultsCount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
