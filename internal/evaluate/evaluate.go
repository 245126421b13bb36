// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate implements the support scoring pass: a batch walk over
// stored papers that asks the model how strongly each paper supports the
// research question and appends an evaluation row per paper. Scoring is
// decoupled from filtering; the support threshold is applied at export time.
package evaluate

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-discovery/internal/llm"
	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// Scorer is the model capability the evaluator needs.
type Scorer interface {
	ScoreSupport(ctx context.Context, title, abstract string, year int, question string) (llm.Support, error)
}

// Stats reports what one evaluation pass did.
type Stats struct {
	Scored int `json:"scored"`
	Failed int `json:"failed"`
}

// Evaluator scores stored papers against the research question.
type Evaluator struct {
	Store    *store.Store
	Scorer   Scorer
	Question string

	// AcceptedOnly restricts the pass to papers in the accepted state.
	AcceptedOnly bool
}

// Run scores every candidate paper, writing progress to w. Rerunning appends
// new evaluation rows; readers wanting the current score take the latest row.
// Individual scoring failures are counted and skipped.
func (e *Evaluator) Run(ctx context.Context, w io.Writer) (Stats, error) {
	var stats Stats
	if e.Question == "" {
		return stats, fmt.Errorf("research question must be set")
	}

	papers, err := e.candidates(ctx)
	if err != nil {
		return stats, err
	}
	fmt.Fprintf(w, "evaluating %d papers\n", len(papers))

	for _, p := range papers {
		if ctx.Err() != nil {
			break
		}
		sup, err := e.Scorer.ScoreSupport(ctx, p.Title, p.Abstract, p.Year, e.Question)
		if err != nil {
			stats.Failed++
			fmt.Fprintf(w, "  scoring %s failed: %v\n", p.PaperID, err)
			continue
		}
		if err := e.Store.AddEvaluation(context.WithoutCancel(ctx), p.PaperID, sup.Level, sup.Reasoning); err != nil {
			stats.Failed++
			fmt.Fprintf(w, "  storing evaluation for %s failed: %v\n", p.PaperID, err)
			continue
		}
		stats.Scored++
		fmt.Fprintf(w, "  %s: support %d\n", p.PaperID, sup.Level)
	}

	fmt.Fprintf(w, "evaluation finished: %d scored, %d failed\n", stats.Scored, stats.Failed)
	return stats, nil
}

// candidates returns the papers to score. Papers without abstracts are
// excluded; they carry too little signal to evaluate.
func (e *Evaluator) candidates(ctx context.Context) ([]types.Paper, error) {
	if e.AcceptedOnly {
		papers, err := e.Store.PapersByState(ctx, types.StateAccepted)
		if err != nil {
			return nil, err
		}
		var out []types.Paper
		for _, p := range papers {
			if p.Abstract != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return e.Store.PapersWithAbstracts(ctx)
}
