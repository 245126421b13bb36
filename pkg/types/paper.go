// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-discovery pipeline:
// the paper record and its lifecycle states, the search payload returned by the
// academic API, and the persisted provenance and evaluation rows.
package types

import "time"

// PaperState is the discovery lifecycle state of a stored paper.
// Papers enter the store as StateDiscovered, move to StateEvaluated once the
// relevance filter has seen them, and end as StateAccepted or StateRejected.
type PaperState string

const (
	StateDiscovered PaperState = "discovered"
	StateEvaluated  PaperState = "evaluated"
	StateAccepted   PaperState = "accepted"
	StateRejected   PaperState = "rejected"
)

// Paper is the stored record for a discovered paper. PaperID is the
// external identifier from the search API and is globally unique: a paper is
// inserted at most once no matter how many queries rediscover it.
//
// Optional fields use zero values for "unknown"; the store's no-clobber merge
// lets later discoveries fill gaps without overwriting known values.
type Paper struct {
	// PaperID is the canonical identifier from the search API.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract, when the API returned one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year (0 if unknown).
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the publication venue (conference or series).
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Journal is the journal name, when different from the venue.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// CitationCount is the number of works citing this paper.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// ReferenceCount is the number of works this paper references.
	ReferenceCount int `json:"reference_count" yaml:"reference_count"`

	// IsOpenAccess reports whether an open-access copy exists.
	IsOpenAccess bool `json:"is_open_access" yaml:"is_open_access"`

	// URL is the paper's landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is the open-access PDF location, when known.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// State is the discovery lifecycle state.
	State PaperState `json:"state" yaml:"state"`

	// CreatedAt is when the row was first inserted.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the row was last merged or its state changed.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// PaperRecord is one candidate paper as returned by the academic search API.
// It carries the Paper attributes plus the raw reference and citation id
// lists present in the search payload.
type PaperRecord struct {
	PaperID        string   `json:"paper_id"`
	Title          string   `json:"title"`
	Abstract       string   `json:"abstract"`
	Authors        []string `json:"authors"`
	Year           int      `json:"year"`
	Venue          string   `json:"venue"`
	Journal        string   `json:"journal"`
	CitationCount  int      `json:"citation_count"`
	ReferenceCount int      `json:"reference_count"`
	IsOpenAccess   bool     `json:"is_open_access"`
	URL            string   `json:"url"`
	PDFURL         string   `json:"pdf_url"`

	// References and Citations are raw paper ids from the payload. They may
	// name papers not yet in the store; the store creates placeholder rows.
	References []string `json:"references"`
	Citations  []string `json:"citations"`
}

// ToPaper converts the search payload to a storable Paper in the initial
// discovery state.
func (r PaperRecord) ToPaper() Paper {
	return Paper{
		PaperID:        r.PaperID,
		Title:          r.Title,
		Abstract:       r.Abstract,
		Authors:        r.Authors,
		Year:           r.Year,
		Venue:          r.Venue,
		Journal:        r.Journal,
		CitationCount:  r.CitationCount,
		ReferenceCount: r.ReferenceCount,
		IsOpenAccess:   r.IsOpenAccess,
		URL:            r.URL,
		PDFURL:         r.PDFURL,
		State:          StateDiscovered,
	}
}

// Search types recorded on SearchLog rows.
const (
	SearchTypeSeed     = "seed"
	SearchTypeFollowUp = "follow-up"
)

// SearchLog is one issued search query. Rows are append-only history: re-runs
// add new rows rather than updating old ones.
type SearchLog struct {
	ID           int64     `json:"id" yaml:"id"`
	Query        string    `json:"query" yaml:"query"`
	SearchType   string    `json:"search_type" yaml:"search_type"`
	ResultsCount int       `json:"results_count" yaml:"results_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Evaluation is one support-level scoring of a paper against the research
// question. Rows are append-only; the current evaluation is the most recent.
type Evaluation struct {
	ID           int64     `json:"id" yaml:"id"`
	PaperID      string    `json:"paper_id" yaml:"paper_id"`
	SupportLevel int       `json:"support_level" yaml:"support_level"`
	Reasoning    string    `json:"reasoning" yaml:"reasoning"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// PaperSupport is the export view row: a paper joined with its latest
// evaluation.
type PaperSupport struct {
	Paper
	SupportLevel int       `json:"support_level" yaml:"support_level"`
	Reasoning    string    `json:"reasoning" yaml:"reasoning"`
	EvaluatedAt  time.Time `json:"evaluated_at" yaml:"evaluated_at"`
}

// Edge is a directed reference or citation link between two stored papers.
type Edge struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	TargetID string `json:"target_id" yaml:"target_id"`
}
