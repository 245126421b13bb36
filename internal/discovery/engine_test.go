// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pdiddy/paper-discovery/internal/llm"
	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// fakeSearcher returns canned results per query.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]types.PaperRecord
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]types.PaperRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeAssistant maps seeds to queries and titles to judgments.
type fakeAssistant struct {
	queries  map[string][]string
	genErrs  map[string]error
	accept   map[string]bool
	concepts map[string][]string
}

func (f *fakeAssistant) GenerateQueries(_ context.Context, seed string, breadth int, _ []string) ([]string, error) {
	if err := f.genErrs[seed]; err != nil {
		return nil, err
	}
	qs := f.queries[seed]
	if len(qs) > breadth {
		qs = qs[:breadth]
	}
	if len(qs) == 0 {
		return nil, llm.ErrEmptyGeneration
	}
	return qs, nil
}

func (f *fakeAssistant) JudgeRelevance(_ context.Context, title, _, _ string) (llm.Relevance, error) {
	return llm.Relevance{Accept: f.accept[title], Rationale: "canned judgment"}, nil
}

func (f *fakeAssistant) ExtractConcepts(_ context.Context, title, _ string) ([]string, error) {
	concepts := f.concepts[title]
	if len(concepts) == 0 {
		return nil, llm.ErrEmptyGeneration
	}
	return concepts, nil
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "discovery.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(id, title, abstract string, refs ...string) types.PaperRecord {
	return types.PaperRecord{
		PaperID:    id,
		Title:      title,
		Abstract:   abstract,
		Year:       2023,
		References: refs,
	}
}

func baseConfig() types.DiscoveryConfig {
	return types.DiscoveryConfig{
		Topics:      []string{"transformer attention"},
		Goal:        "efficient attention mechanisms",
		MaxDepth:    1,
		Breadth:     2,
		MaxPapers:   100,
		Concurrency: 2,
	}
}

func TestRunSingleLevel(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q1": {rec("p1", "Relevant Paper", "On-topic abstract.", "ref1")},
			"q2": {rec("p2", "Off Topic Paper", "Unrelated abstract.")},
		},
	}
	assistant := &fakeAssistant{
		queries:  map[string][]string{"transformer attention": {"q1", "q2", "q3"}},
		accept:   map[string]bool{"Relevant Paper": true},
		concepts: map[string][]string{"Relevant Paper": {"linear attention", "kernel methods"}},
	}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: baseConfig()}

	sum, err := e.Run(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	// Breadth caps generation at 2 queries; max_depth=1 means the level-1
	// concepts are stored but never expanded.
	if search.callCount() != 2 {
		t.Errorf("searches issued = %d, want 2", search.callCount())
	}
	if sum.Reason != ReasonMaxDepth {
		t.Errorf("reason = %q, want %q", sum.Reason, ReasonMaxDepth)
	}
	if sum.Levels != 1 || sum.QueriesIssued != 2 {
		t.Errorf("summary = %+v", sum)
	}
	// p1, p2 plus the ref1 placeholder.
	if sum.PapersStored != 3 {
		t.Errorf("papers stored = %d, want 3", sum.PapersStored)
	}
	if sum.Accepted != 1 || sum.Rejected != 1 {
		t.Errorf("accepted/rejected = %d/%d, want 1/1", sum.Accepted, sum.Rejected)
	}

	ctx := context.Background()
	p1, err := s.GetPaper(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p1.State != types.StateAccepted {
		t.Errorf("p1 state = %q, want accepted", p1.State)
	}
	p2, _ := s.GetPaper(ctx, "p2")
	if p2.State != types.StateRejected {
		t.Errorf("p2 state = %q, want rejected", p2.State)
	}
	ref1, _ := s.GetPaper(ctx, "ref1")
	if ref1.State != types.StateDiscovered {
		t.Errorf("ref1 state = %q, want discovered", ref1.State)
	}

	concepts, err := s.Concepts(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(concepts) != 2 {
		t.Errorf("concepts = %v, want 2", concepts)
	}
}

func TestRunExpandsConceptsAtNextDepth(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q1":        {rec("p1", "Relevant Paper", "On-topic abstract.")},
			"follow-up": {rec("p2", "Second Level Paper", "Another abstract.")},
		},
	}
	assistant := &fakeAssistant{
		queries: map[string][]string{
			"transformer attention": {"q1"},
			"linear attention":      {"follow-up"},
		},
		accept:   map[string]bool{"Relevant Paper": true},
		concepts: map[string][]string{"Relevant Paper": {"linear attention"}},
	}
	cfg := baseConfig()
	cfg.MaxDepth = 2
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: cfg}

	sum, err := e.Run(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Levels != 2 {
		t.Errorf("levels = %d, want 2", sum.Levels)
	}

	// Depth-1 searches are logged as follow-up queries.
	logs, err := s.SearchLogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	typesSeen := map[string]string{}
	for _, l := range logs {
		typesSeen[l.Query] = l.SearchType
	}
	if typesSeen["q1"] != types.SearchTypeSeed {
		t.Errorf("q1 search type = %q, want seed", typesSeen["q1"])
	}
	if typesSeen["follow-up"] != types.SearchTypeFollowUp {
		t.Errorf("follow-up search type = %q, want follow-up", typesSeen["follow-up"])
	}
}

func TestRunStopsAtPaperCap(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q1": {rec("p1", "Relevant Paper", "Abstract.")},
		},
	}
	assistant := &fakeAssistant{
		queries:  map[string][]string{"transformer attention": {"q1"}, "linear attention": {"q2"}},
		accept:   map[string]bool{"Relevant Paper": true},
		concepts: map[string][]string{"Relevant Paper": {"linear attention"}},
	}
	cfg := baseConfig()
	cfg.MaxDepth = 3
	cfg.MaxPapers = 1
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: cfg}

	sum, err := e.Run(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Reason != ReasonPaperCap {
		t.Errorf("reason = %q, want %q", sum.Reason, ReasonPaperCap)
	}
	// The cap tripped after level 0; no depth-1 searches were dispatched.
	if search.callCount() != 1 {
		t.Errorf("searches = %d, want 1", search.callCount())
	}
}

func TestRunCapNeverExceeded(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q1": {
				rec("p1", "First Paper", "Abstract.", "ref1", "ref2"),
				rec("p2", "Second Paper", "Abstract."),
				rec("p3", "Third Paper", "Abstract."),
			},
		},
	}
	assistant := &fakeAssistant{
		queries: map[string][]string{"transformer attention": {"q1"}},
	}
	cfg := baseConfig()
	cfg.MaxPapers = 1
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: cfg}

	sum, err := e.Run(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	// The single budget slot goes to the first record; its reference
	// placeholders and the rest of the result page are dropped.
	n, err := s.CountPapers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored paper rows = %d, want 1 (max_papers)", n)
	}
	if sum.PapersStored != 1 {
		t.Errorf("papers stored = %d, want 1", sum.PapersStored)
	}
	if sum.Reason != ReasonPaperCap {
		t.Errorf("reason = %q, want %q", sum.Reason, ReasonPaperCap)
	}
}

func TestStoreRecordPartialFailureCounted(t *testing.T) {
	s := testStore(t)
	e := &Engine{Store: s, Search: &fakeSearcher{}, Assistant: &fakeAssistant{}, Config: baseConfig()}
	rs := newRunState(10, 0)

	// Linking provenance against a search log that does not exist fails
	// after the paper row committed; the count must still report that row.
	stored, err := e.storeRecord(context.Background(), rec("p1", "Paper", "Abstract."), 999, rs)
	if err == nil {
		t.Fatal("expected provenance link failure")
	}
	if stored != 1 {
		t.Errorf("stored = %d, want 1 (paper row committed before the failure)", stored)
	}
	n, err := s.CountPapers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("paper rows = %d, want 1", n)
	}
}

func TestRunDeduplicatesQueries(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{results: map[string][]types.PaperRecord{}}
	assistant := &fakeAssistant{
		queries: map[string][]string{
			"topic a": {"Shared   Query"},
			"topic b": {"shared query", "other query"},
		},
	}
	cfg := baseConfig()
	cfg.Topics = []string{"topic a", "topic b"}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: cfg}

	if _, err := e.Run(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}
	// Whitespace and case variants of the same query are issued once.
	if search.callCount() != 2 {
		t.Errorf("searches = %d, want 2 (%v)", search.callCount(), search.calls)
	}
}

func TestRunSearchFailureIsSkipped(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q2": {rec("p1", "Paper", "Abstract.")},
		},
		errs: map[string]error{"q1": errors.New("connection reset")},
	}
	assistant := &fakeAssistant{
		queries: map[string][]string{"transformer attention": {"q1", "q2"}},
	}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: baseConfig()}

	sum, err := e.Run(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if sum.ErrorsSkipped == 0 {
		t.Error("expected the failed search to be counted")
	}

	// The failed query still gets a zero-result log row; the other query's
	// results are stored normally.
	logs, err := s.SearchLogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, l := range logs {
		counts[l.Query] = l.ResultsCount
	}
	if n, ok := counts["q1"]; !ok || n != 0 {
		t.Errorf("q1 log = %v (present %v), want zero-result row", n, ok)
	}
	if counts["q2"] != 1 {
		t.Errorf("q2 log = %d, want 1", counts["q2"])
	}
	if _, err := s.GetPaper(context.Background(), "p1"); err != nil {
		t.Errorf("p1 not stored: %v", err)
	}
}

func TestRunGenerationFailureIsSkipped(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{}
	assistant := &fakeAssistant{
		genErrs: map[string]error{"transformer attention": llm.ErrEmptyGeneration},
	}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: baseConfig()}

	sum, err := e.Run(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if sum.ErrorsSkipped != 1 {
		t.Errorf("errors skipped = %d, want 1", sum.ErrorsSkipped)
	}
	if search.callCount() != 0 {
		t.Errorf("searches = %d, want 0", search.callCount())
	}
}

func TestRunPapersWithoutAbstractsStayDiscovered(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q1": {rec("p1", "No Abstract Paper", "")},
		},
	}
	assistant := &fakeAssistant{
		queries: map[string][]string{"transformer attention": {"q1"}},
		accept:  map[string]bool{"No Abstract Paper": true},
	}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: baseConfig()}

	if _, err := e.Run(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}
	p, err := s.GetPaper(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.State != types.StateDiscovered {
		t.Errorf("state = %q, want discovered (no abstract to judge)", p.State)
	}
}

func TestRunRerunDoesNotDuplicatePapers(t *testing.T) {
	s := testStore(t)
	search := &fakeSearcher{
		results: map[string][]types.PaperRecord{
			"q1": {rec("p1", "Paper", "Abstract.", "ref1")},
		},
	}
	assistant := &fakeAssistant{
		queries: map[string][]string{"transformer attention": {"q1"}},
	}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: baseConfig()}

	for i := 0; i < 2; i++ {
		if _, err := e.Run(context.Background(), io.Discard); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.CountPapers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("papers after rerun = %d, want 2 (p1 + ref1)", n)
	}
	// Search history grows across runs.
	logs, _ := s.SearchLogs(context.Background())
	if len(logs) != 2 {
		t.Errorf("search logs = %d, want 2", len(logs))
	}
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.DiscoveryConfig)
	}{
		{"zero depth", func(c *types.DiscoveryConfig) { c.MaxDepth = 0 }},
		{"zero breadth", func(c *types.DiscoveryConfig) { c.Breadth = 0 }},
		{"zero cap", func(c *types.DiscoveryConfig) { c.MaxPapers = 0 }},
		{"no goal", func(c *types.DiscoveryConfig) { c.Goal = "" }},
		{"no topics", func(c *types.DiscoveryConfig) { c.Topics = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			e := &Engine{Store: testStore(t), Search: &fakeSearcher{}, Assistant: &fakeAssistant{}, Config: cfg}
			_, err := e.Run(context.Background(), io.Discard)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRunTopicsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	content := "topics:\n  - file topic\n  - transformer attention\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.TopicsFile = path
	topics, err := loadTopics(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Config topics come first; the duplicate from the file is dropped.
	if len(topics) != 2 || topics[0] != "transformer attention" || topics[1] != "file topic" {
		t.Errorf("topics = %v", topics)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Engine{Store: testStore(t), Search: &fakeSearcher{}, Assistant: &fakeAssistant{}, Config: baseConfig()}
	sum, err := e.Run(ctx, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Reason != ReasonCancelled {
		t.Errorf("reason = %q, want %q", sum.Reason, ReasonCancelled)
	}
	if sum.QueriesIssued != 0 {
		t.Errorf("queries issued = %d, want 0", sum.QueriesIssued)
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Transformer  Attention", "transformer attention"},
		{"  spaced\tout  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeQuery(tt.in); got != tt.want {
			t.Errorf("normalizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunStateCap(t *testing.T) {
	rs := newRunState(3, 1)
	if rs.capReached() {
		t.Error("cap reached too early")
	}
	// Two slots remain; an oversized claim is trimmed to them.
	if got := rs.reserve(5); got != 2 {
		t.Errorf("reserve(5) = %d, want 2", got)
	}
	if !rs.capReached() {
		t.Error("capReached should report true")
	}
	if got := rs.reserve(1); got != 0 {
		t.Errorf("reserve(1) at cap = %d, want 0", got)
	}
	rs.release(1)
	if rs.capReached() {
		t.Error("released slot should reopen the budget")
	}
	if got := rs.reserve(1); got != 1 {
		t.Errorf("reserve(1) = %d, want 1", got)
	}
}

func TestSummaryString(t *testing.T) {
	// Progress output should mention the termination reason.
	s := testStore(t)
	search := &fakeSearcher{}
	assistant := &fakeAssistant{genErrs: map[string]error{"transformer attention": llm.ErrEmptyGeneration}}
	e := &Engine{Store: s, Search: search, Assistant: assistant, Config: baseConfig()}

	var buf bytes.Buffer
	if _, err := e.Run(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "run finished") {
		t.Errorf("progress output missing summary line: %q", buf.String())
	}
}
