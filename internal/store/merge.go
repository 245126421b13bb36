// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import "github.com/pdiddy/paper-discovery/pkg/types"

// mergePaper applies the no-clobber merge rule: incoming values may fill
// fields the existing row does not know, but a known value is never blanked
// or replaced. Citation and reference counts keep the higher value, since a
// later crawl only ever sees these grow. The open-access flag merges with OR.
//
// The existing row's identity, state, and created_at always win; state
// transitions go through SetState, not through rediscovery.
func mergePaper(existing, incoming types.Paper) types.Paper {
	merged := existing

	if merged.Title == "" {
		merged.Title = incoming.Title
	}
	if merged.Abstract == "" {
		merged.Abstract = incoming.Abstract
	}
	if len(merged.Authors) == 0 {
		merged.Authors = incoming.Authors
	}
	if merged.Year == 0 {
		merged.Year = incoming.Year
	}
	if merged.Venue == "" {
		merged.Venue = incoming.Venue
	}
	if merged.Journal == "" {
		merged.Journal = incoming.Journal
	}
	if incoming.CitationCount > merged.CitationCount {
		merged.CitationCount = incoming.CitationCount
	}
	if incoming.ReferenceCount > merged.ReferenceCount {
		merged.ReferenceCount = incoming.ReferenceCount
	}
	if incoming.IsOpenAccess {
		merged.IsOpenAccess = true
	}
	if merged.URL == "" {
		merged.URL = incoming.URL
	}
	if merged.PDFURL == "" {
		merged.PDFURL = incoming.PDFURL
	}

	return merged
}
