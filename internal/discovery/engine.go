// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery implements the frontier expansion engine: the iterative
// loop that turns seed topics into a bounded, deduplicated exploration of the
// paper graph.
//
// Each depth level runs generate -> search -> store -> filter -> extract:
// the model proposes queries for every seed, surviving queries go to the
// search API under a bounded worker pool, results are upserted with
// provenance and edges, newly discovered papers are relevance-filtered, and
// concepts extracted from accepted papers become the next level's seeds.
// Levels are strictly sequential; queries within a level run concurrently.
//
// Collaborator failures are skipped and counted, never fatal: only a bad
// configuration prevents a run from starting.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-discovery/internal/llm"
	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// ErrInvalidConfig is returned by Run when the configuration cannot produce a
// valid run. It is the only error class that aborts a run before it starts.
var ErrInvalidConfig = errors.New("invalid discovery configuration")

// acceptedContextLimit caps how many accepted-paper titles are fed back into
// query generation prompts.
const acceptedContextLimit = 20

// Searcher is the academic search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.PaperRecord, error)
}

// Assistant is the language-model collaborator.
type Assistant interface {
	GenerateQueries(ctx context.Context, seed string, breadth int, accepted []string) ([]string, error)
	JudgeRelevance(ctx context.Context, title, abstract, goal string) (llm.Relevance, error)
	ExtractConcepts(ctx context.Context, title, abstract string) ([]string, error)
}

// Termination reasons reported in the run summary.
const (
	ReasonMaxDepth  = "max depth reached"
	ReasonPaperCap  = "paper cap reached"
	ReasonNoSeeds   = "no seeds remaining"
	ReasonCancelled = "cancelled"
)

// Summary reports what one discovery run did. A run that skipped failing
// collaborator calls still completes with a summary.
type Summary struct {
	Levels        int    `json:"levels"`
	QueriesIssued int    `json:"queries_issued"`
	PapersFound   int    `json:"papers_found"`
	PapersStored  int    `json:"papers_stored"`
	Accepted      int    `json:"accepted"`
	Rejected      int    `json:"rejected"`
	ErrorsSkipped int    `json:"errors_skipped"`
	Reason        string `json:"reason"`
}

// Engine orchestrates discovery rounds over the store and the two
// collaborators.
type Engine struct {
	Store     *store.Store
	Search    Searcher
	Assistant Assistant
	Config    types.DiscoveryConfig
}

func validateConfig(cfg types.DiscoveryConfig) error {
	switch {
	case cfg.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth must be at least 1", ErrInvalidConfig)
	case cfg.Breadth < 1:
		return fmt.Errorf("%w: breadth must be at least 1", ErrInvalidConfig)
	case cfg.MaxPapers < 1:
		return fmt.Errorf("%w: max_papers must be at least 1", ErrInvalidConfig)
	case cfg.Goal == "":
		return fmt.Errorf("%w: goal must be set", ErrInvalidConfig)
	}
	return nil
}

// Run executes the discovery loop, writing progress to w. Cancellation is
// cooperative: in-flight queries commit their results, no new queries are
// dispatched, and the run returns a normal summary with ReasonCancelled.
func (e *Engine) Run(ctx context.Context, w io.Writer) (Summary, error) {
	var sum Summary

	if err := validateConfig(e.Config); err != nil {
		return sum, err
	}
	seeds, err := loadTopics(e.Config)
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(seeds) == 0 {
		return sum, fmt.Errorf("%w: no seed topics", ErrInvalidConfig)
	}

	// The paper budget covers all stored rows, so a resumed run starts from
	// the store's current count. Setup reads run even when cancellation has
	// already been requested; the loop below observes the signal.
	existing, err := e.Store.CountPapers(context.WithoutCancel(ctx))
	if err != nil {
		return sum, fmt.Errorf("counting stored papers: %w", err)
	}
	rs := newRunState(e.Config.MaxPapers, existing)

	sum.Reason = ReasonMaxDepth
	for depth := 0; depth < e.Config.MaxDepth; depth++ {
		if ctx.Err() != nil {
			sum.Reason = ReasonCancelled
			break
		}
		if rs.capReached() {
			sum.Reason = ReasonPaperCap
			break
		}
		if len(seeds) == 0 {
			sum.Reason = ReasonNoSeeds
			break
		}

		sum.Levels++
		fmt.Fprintf(w, "level %d: expanding %d seeds\n", depth, len(seeds))

		queries := e.generateQueries(ctx, seeds, rs, &sum, w)
		newIDs := e.runSearches(ctx, depth, queries, rs, &sum, w)
		if ctx.Err() != nil {
			sum.Reason = ReasonCancelled
			break
		}
		seeds = e.filterAndExtract(ctx, newIDs, &sum, w)
	}
	if ctx.Err() != nil {
		sum.Reason = ReasonCancelled
	} else if sum.Reason == ReasonMaxDepth && rs.capReached() {
		// The cap can trip during the final level.
		sum.Reason = ReasonPaperCap
	}

	fmt.Fprintf(w, "run finished: %s (%d levels, %d queries, %d papers stored, %d accepted, %d errors skipped)\n",
		sum.Reason, sum.Levels, sum.QueriesIssued, sum.PapersStored, sum.Accepted, sum.ErrorsSkipped)
	return sum, nil
}

// generateQueries asks the model for queries on each seed and dedupes them
// against the run's seen-set. A generation failure skips that seed only.
func (e *Engine) generateQueries(ctx context.Context, seeds []string, rs *runState, sum *Summary, w io.Writer) []string {
	accepted := e.acceptedTitles(ctx)

	var queries []string
	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		generated, err := e.Assistant.GenerateQueries(ctx, seed, e.Config.Breadth, accepted)
		if err != nil {
			sum.ErrorsSkipped++
			fmt.Fprintf(w, "  query generation failed for %q: %v\n", seed, err)
			continue
		}
		for _, q := range generated {
			if rs.markQuery(q) {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

// runSearches issues the level's queries through a bounded worker pool and
// returns the ids of papers surfaced at this level. The search log row is
// written before any paper rows so provenance is never orphaned; a failed
// search logs zero results and the level continues. Storing stops as soon as
// the paper budget is spent, even mid-result-page.
func (e *Engine) runSearches(ctx context.Context, depth int, queries []string, rs *runState, sum *Summary, w io.Writer) []string {
	searchType := types.SearchTypeSeed
	if depth > 0 {
		searchType = types.SearchTypeFollowUp
	}
	concurrency := e.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu       sync.Mutex
		seen     = map[string]bool{}
		levelIDs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, query := range queries {
		if gctx.Err() != nil || rs.capReached() {
			break
		}
		g.Go(func() error {
			// Results of a dispatched query are always committed, even when
			// the run is cancelled or the cap trips mid-query.
			dbctx := context.WithoutCancel(gctx)

			records, err := e.Search.Search(gctx, query)
			if err != nil {
				if _, logErr := e.Store.LogSearch(dbctx, query, searchType, 0); logErr != nil {
					err = errors.Join(err, logErr)
				}
				mu.Lock()
				sum.QueriesIssued++
				sum.ErrorsSkipped++
				fmt.Fprintf(w, "  search failed for %q: %v\n", query, err)
				mu.Unlock()
				return nil
			}

			logID, err := e.Store.LogSearch(dbctx, query, searchType, len(records))
			if err != nil {
				mu.Lock()
				sum.ErrorsSkipped++
				fmt.Fprintf(w, "  logging search %q: %v\n", query, err)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			sum.QueriesIssued++
			sum.PapersFound += len(records)
			fmt.Fprintf(w, "  %q: %d results\n", query, len(records))
			mu.Unlock()

			for _, rec := range records {
				if rs.capReached() {
					break
				}
				stored, err := e.storeRecord(dbctx, rec, logID, rs)
				mu.Lock()
				// Rows that committed before a failure still count against
				// the budget.
				sum.PapersStored += stored
				if err != nil {
					sum.ErrorsSkipped++
					fmt.Fprintf(w, "  storing %s: %v\n", rec.PaperID, err)
					mu.Unlock()
					continue
				}
				if !seen[rec.PaperID] {
					seen[rec.PaperID] = true
					levelIDs = append(levelIDs, rec.PaperID)
				}
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return levelIDs
}

// storeRecord upserts one search result with its provenance link and edges.
// Every row claims a budget slot before it is written, so the stored paper
// count never passes the cap: a record that cannot claim a slot is dropped,
// and edge placeholders beyond the remaining budget are dropped with their
// edges. It returns how many new paper rows were created; on error the count
// still covers rows that committed before the failure.
func (e *Engine) storeRecord(ctx context.Context, rec types.PaperRecord, logID int64, rs *runState) (int, error) {
	if rs.reserve(1) == 0 {
		return 0, nil
	}
	stored := 0
	inserted, err := e.Store.UpsertPaper(ctx, rec.ToPaper())
	if err != nil {
		rs.release(1)
		return 0, err
	}
	if inserted {
		stored++
	} else {
		rs.release(1)
	}
	if err := e.Store.LinkPaperToSearch(ctx, rec.PaperID, logID); err != nil {
		return stored, err
	}
	budget := rs.reserve(len(rec.References) + len(rec.Citations))
	placeholders, err := e.Store.AddEdges(ctx, rec.PaperID, rec.References, rec.Citations, budget)
	rs.release(budget - placeholders)
	if err != nil {
		return stored, err
	}
	return stored + placeholders, nil
}

// filterAndExtract runs the relevance filter over this level's new papers and
// extracts concepts from accepted ones. The returned concepts seed the next
// level. Papers without abstracts stay in the discovered state for a later
// enrichment pass.
func (e *Engine) filterAndExtract(ctx context.Context, ids []string, sum *Summary, w io.Writer) []string {
	var (
		seeds []string
		seen  = map[string]bool{}
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		dbctx := context.WithoutCancel(ctx)

		p, err := e.Store.GetPaper(ctx, id)
		if err != nil {
			sum.ErrorsSkipped++
			continue
		}
		if p.State != types.StateDiscovered || p.Abstract == "" {
			continue
		}

		if err := e.Store.SetState(dbctx, id, types.StateEvaluated); err != nil {
			sum.ErrorsSkipped++
			continue
		}
		rel, err := e.Assistant.JudgeRelevance(ctx, p.Title, p.Abstract, e.Config.Goal)
		if err != nil {
			sum.ErrorsSkipped++
			fmt.Fprintf(w, "  relevance check failed for %s: %v\n", id, err)
			continue
		}
		if !rel.Accept {
			if err := e.Store.SetState(dbctx, id, types.StateRejected); err != nil {
				sum.ErrorsSkipped++
				continue
			}
			sum.Rejected++
			continue
		}

		if err := e.Store.SetState(dbctx, id, types.StateAccepted); err != nil {
			sum.ErrorsSkipped++
			continue
		}
		sum.Accepted++

		concepts, err := e.Assistant.ExtractConcepts(ctx, p.Title, p.Abstract)
		if err != nil {
			sum.ErrorsSkipped++
			fmt.Fprintf(w, "  concept extraction failed for %s: %v\n", id, err)
			continue
		}
		if err := e.Store.AddConcepts(dbctx, id, concepts); err != nil {
			sum.ErrorsSkipped++
			continue
		}
		for _, c := range concepts {
			key := normalizeQuery(c)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			seeds = append(seeds, c)
		}
	}
	return seeds
}

// acceptedTitles returns titles of already-accepted papers for use as query
// generation context. Failures here degrade the prompt, not the run.
func (e *Engine) acceptedTitles(ctx context.Context) []string {
	papers, err := e.Store.PapersByState(ctx, types.StateAccepted)
	if err != nil {
		return nil
	}
	var titles []string
	for _, p := range papers {
		if p.Title == "" {
			continue
		}
		titles = append(titles, p.Title)
		if len(titles) == acceptedContextLimit {
			break
		}
	}
	return titles
}
