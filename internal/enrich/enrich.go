// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich fills in metadata for papers the discovery run only knows as
// placeholder rows: papers created from reference/citation edges, or search
// results that came back without abstracts. Each candidate gets one detail
// lookup; the result merges into the stored row under the store's no-clobber
// rule.
package enrich

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// Fetcher is the detail-lookup capability of the search collaborator.
type Fetcher interface {
	Details(ctx context.Context, paperID string) (types.PaperRecord, error)
}

// Stats reports what one enrichment pass did.
type Stats struct {
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`

	// EdgesAdded counts new placeholder rows created from the fetched
	// records' reference/citation lists.
	EdgesAdded int `json:"edges_added"`
}

// Enricher backfills metadata for incomplete paper rows.
type Enricher struct {
	Store   *store.Store
	Fetcher Fetcher

	// Limit caps how many papers one pass processes (0 = no limit).
	Limit int
}

// Run fetches details for every paper missing an abstract or venue and merges
// the results. Lookup failures are counted and skipped.
func (e *Enricher) Run(ctx context.Context, w io.Writer) (Stats, error) {
	var stats Stats

	papers, err := e.Store.PapersMissingMetadata(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing papers to enrich: %w", err)
	}
	if e.Limit > 0 && len(papers) > e.Limit {
		papers = papers[:e.Limit]
	}
	fmt.Fprintf(w, "enriching %d papers\n", len(papers))

	for _, p := range papers {
		if ctx.Err() != nil {
			break
		}
		rec, err := e.Fetcher.Details(ctx, p.PaperID)
		if err != nil {
			stats.Failed++
			fmt.Fprintf(w, "  details for %s failed: %v\n", p.PaperID, err)
			continue
		}

		dbctx := context.WithoutCancel(ctx)
		if _, err := e.Store.UpsertPaper(dbctx, rec.ToPaper()); err != nil {
			stats.Failed++
			fmt.Fprintf(w, "  merging %s failed: %v\n", p.PaperID, err)
			continue
		}
		placeholders, err := e.Store.AddEdges(dbctx, rec.PaperID, rec.References, rec.Citations, -1)
		if err != nil {
			stats.Failed++
			fmt.Fprintf(w, "  edges for %s failed: %v\n", p.PaperID, err)
			continue
		}
		stats.Enriched++
		stats.EdgesAdded += placeholders
	}

	fmt.Fprintf(w, "enrichment finished: %d enriched, %d failed\n", stats.Enriched, stats.Failed)
	return stats, nil
}
