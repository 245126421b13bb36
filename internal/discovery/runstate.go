// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"strings"
	"sync"
)

// runState is the shared mutable state of one discovery run: the seen-query
// set and the paper budget. It is owned by the run and passed to workers;
// nothing here outlives the run.
type runState struct {
	mu        sync.Mutex
	seen      map[string]bool
	papers    int
	maxPapers int
}

func newRunState(maxPapers, existingPapers int) *runState {
	return &runState{
		seen:      map[string]bool{},
		papers:    existingPapers,
		maxPapers: maxPapers,
	}
}

// normalizeQuery lowercases and collapses internal whitespace so trivially
// restated queries dedupe.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// markQuery records a query in the seen-set and reports whether it was new.
// The same normalized query is never issued twice within one run.
func (rs *runState) markQuery(q string) bool {
	key := normalizeQuery(q)
	if key == "" {
		return false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.seen[key] {
		return false
	}
	rs.seen[key] = true
	return true
}

// reserve claims up to n slots of the paper budget and returns how many were
// granted. Every row insert (papers and edge placeholders alike) claims its
// slot before writing, so the stored row count can never pass the cap even
// with concurrent workers. Callers release slots they did not turn into rows.
func (rs *runState) reserve(n int) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	free := rs.maxPapers - rs.papers
	if free <= 0 {
		return 0
	}
	if n > free {
		n = free
	}
	rs.papers += n
	return n
}

// release returns n unused slots to the budget.
func (rs *runState) release(n int) {
	if n <= 0 {
		return
	}
	rs.mu.Lock()
	rs.papers -= n
	rs.mu.Unlock()
}

// capReached reports whether the paper budget is exhausted.
func (rs *runState) capReached() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.papers >= rs.maxPapers
}
