// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar queries the Semantic Scholar Graph API for paper search and
// single-paper detail lookups. Calls are paced to stay under the API rate
// limit and retried on 429/503 responses.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pdiddy/paper-discovery/internal/httputil"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// scholarAPIBase is the Semantic Scholar Graph API root. Declared as a var so
// tests can substitute an httptest server.
var scholarAPIBase = "https://api.semanticscholar.org/graph/v1"

// searchFields lists the paper attributes requested per search result,
// including the raw reference/citation id lists used for edge insertion.
const searchFields = "paperId,title,abstract,authors,year,venue,journal," +
	"citationCount,referenceCount,isOpenAccess,openAccessPdf,url," +
	"references.paperId,citations.paperId"

const defaultUserAgent = "paper-discovery/0.1"

// Client queries the Semantic Scholar Graph API.
type Client struct {
	HTTP   *http.Client
	APIKey string

	// UserAgent overrides the default User-Agent header when non-empty.
	UserAgent string

	// MaxResults is the page size requested per search, clamped to 1-100.
	MaxResults int

	// RequestDelay is the minimum spacing between consecutive API calls.
	RequestDelay time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// New creates a Client from configuration.
func New(cfg types.ScholarConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = 600 * time.Millisecond
	}
	return &Client{
		HTTP:         &http.Client{Timeout: timeout},
		APIKey:       cfg.APIKey,
		UserAgent:    cfg.UserAgent,
		MaxResults:   cfg.MaxResults,
		RequestDelay: delay,
	}
}

// Search runs a paper search and returns the result page. An empty result
// list with a nil error means the query genuinely matched nothing.
func (c *Client) Search(ctx context.Context, query string) ([]types.PaperRecord, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	limit := c.MaxResults
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {searchFields},
	}

	var sr searchResponse
	if err := c.get(ctx, scholarAPIBase+"/paper/search?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	var records []types.PaperRecord
	for _, p := range sr.Data {
		if p.PaperID == "" {
			continue
		}
		records = append(records, p.toRecord())
	}
	return records, nil
}

// Details fetches full metadata for one paper, used by the enrichment pass to
// fill placeholder rows discovered through reference/citation edges.
func (c *Client) Details(ctx context.Context, paperID string) (types.PaperRecord, error) {
	if paperID == "" {
		return types.PaperRecord{}, fmt.Errorf("empty paper id")
	}

	params := url.Values{"fields": {searchFields}}
	var p scholarPaper
	if err := c.get(ctx, scholarAPIBase+"/paper/"+url.PathEscape(paperID)+"?"+params.Encode(), &p); err != nil {
		return types.PaperRecord{}, fmt.Errorf("fetching details for %s: %w", paperID, err)
	}
	if p.PaperID == "" {
		return types.PaperRecord{}, fmt.Errorf("paper %s not found", paperID)
	}
	return p.toRecord(), nil
}

// Ping verifies API connectivity with a minimal search.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{"query": {"test"}, "limit": {"1"}, "fields": {"paperId"}}
	var sr searchResponse
	if err := c.get(ctx, scholarAPIBase+"/paper/search?"+params.Encode(), &sr); err != nil {
		return fmt.Errorf("pinging semantic scholar: %w", err)
	}
	return nil
}

// get performs one paced GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, reqURL string, dst any) error {
	if err := c.pace(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 3)
	if err != nil {
		return fmt.Errorf("calling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// pace enforces the minimum delay between consecutive API calls across
// concurrent workers.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastCall.Add(c.RequestDelay)
	if next.Before(now) {
		next = now
	}
	c.lastCall = next
	c.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Semantic Scholar Graph API JSON structures.
type searchResponse struct {
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Data   []scholarPaper `json:"data"`
}

type scholarPaper struct {
	PaperID        string          `json:"paperId"`
	Title          string          `json:"title"`
	Abstract       string          `json:"abstract"`
	Year           int             `json:"year"`
	Venue          string          `json:"venue"`
	Journal        *scholarJournal `json:"journal"`
	CitationCount  int             `json:"citationCount"`
	ReferenceCount int             `json:"referenceCount"`
	IsOpenAccess   bool            `json:"isOpenAccess"`
	OpenAccessPdf  *scholarPdf     `json:"openAccessPdf"`
	URL            string          `json:"url"`
	Authors        []scholarAuthor `json:"authors"`
	References     []scholarRef    `json:"references"`
	Citations      []scholarRef    `json:"citations"`
}

type scholarAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type scholarJournal struct {
	Name string `json:"name"`
}

type scholarPdf struct {
	URL string `json:"url"`
}

type scholarRef struct {
	PaperID string `json:"paperId"`
}

func (p scholarPaper) toRecord() types.PaperRecord {
	r := types.PaperRecord{
		PaperID:        p.PaperID,
		Title:          p.Title,
		Abstract:       p.Abstract,
		Year:           p.Year,
		Venue:          p.Venue,
		CitationCount:  p.CitationCount,
		ReferenceCount: p.ReferenceCount,
		IsOpenAccess:   p.IsOpenAccess,
		URL:            p.URL,
	}
	if p.Journal != nil {
		r.Journal = p.Journal.Name
	}
	if p.OpenAccessPdf != nil {
		r.PDFURL = p.OpenAccessPdf.URL
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			r.Authors = append(r.Authors, a.Name)
		}
	}
	for _, ref := range p.References {
		if ref.PaperID != "" {
			r.References = append(r.References, ref.PaperID)
		}
	}
	for _, cit := range p.Citations {
		if cit.PaperID != "" {
			r.Citations = append(r.Citations, cit.PaperID)
		}
	}
	return r
}
