// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"reflect"
	"testing"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

func TestMergePaperFillsGaps(t *testing.T) {
	existing := types.Paper{
		PaperID: "p1",
		Title:   "Attention Is All You Need",
		State:   types.StateAccepted,
	}
	incoming := types.Paper{
		PaperID:  "p1",
		Title:    "different title from a weaker source",
		Abstract: "The dominant sequence transduction models...",
		Authors:  []string{"Vaswani, A."},
		Year:     2017,
		Venue:    "NeurIPS",
		State:    types.StateDiscovered,
	}

	merged := mergePaper(existing, incoming)

	if merged.Title != "Attention Is All You Need" {
		t.Errorf("title clobbered: %q", merged.Title)
	}
	if merged.Abstract != incoming.Abstract {
		t.Errorf("abstract not filled: %q", merged.Abstract)
	}
	if !reflect.DeepEqual(merged.Authors, incoming.Authors) {
		t.Errorf("authors not filled: %v", merged.Authors)
	}
	if merged.Year != 2017 || merged.Venue != "NeurIPS" {
		t.Errorf("year/venue not filled: %d %q", merged.Year, merged.Venue)
	}
	if merged.State != types.StateAccepted {
		t.Errorf("state changed by merge: %q", merged.State)
	}
}

func TestMergePaperNeverBlanks(t *testing.T) {
	existing := types.Paper{
		PaperID:  "p1",
		Title:    "Known Title",
		Abstract: "Known abstract.",
		Authors:  []string{"Smith, J."},
		Year:     2020,
		Venue:    "ICML",
		Journal:  "JMLR",
		URL:      "https://example.org/p1",
	}

	merged := mergePaper(existing, types.Paper{PaperID: "p1"})

	if !reflect.DeepEqual(merged, existing) {
		t.Errorf("empty incoming changed existing row:\n got %+v\nwant %+v", merged, existing)
	}
}

func TestMergePaperCounts(t *testing.T) {
	tests := []struct {
		name               string
		existing, incoming int
		want               int
	}{
		{"incoming higher wins", 10, 25, 25},
		{"incoming lower ignored", 25, 10, 25},
		{"zero incoming ignored", 25, 0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := mergePaper(
				types.Paper{PaperID: "p1", CitationCount: tt.existing, ReferenceCount: tt.existing},
				types.Paper{PaperID: "p1", CitationCount: tt.incoming, ReferenceCount: tt.incoming},
			)
			if merged.CitationCount != tt.want || merged.ReferenceCount != tt.want {
				t.Errorf("counts = %d/%d, want %d", merged.CitationCount, merged.ReferenceCount, tt.want)
			}
		})
	}
}

func TestMergePaperOpenAccessNeverUnsets(t *testing.T) {
	merged := mergePaper(
		types.Paper{PaperID: "p1", IsOpenAccess: true},
		types.Paper{PaperID: "p1", IsOpenAccess: false},
	)
	if !merged.IsOpenAccess {
		t.Error("open-access flag was unset by merge")
	}

	merged = mergePaper(
		types.Paper{PaperID: "p1"},
		types.Paper{PaperID: "p1", IsOpenAccess: true},
	)
	if !merged.IsOpenAccess {
		t.Error("open-access flag was not filled by merge")
	}
}
