// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivDomain is the fixed source for academic results. Every arXiv entry
// links under this registrable domain, so the literal and the extracted
// domain agree.
const arxivDomain = "arxiv.org"

// snippetLimit truncates abstracts for display.
const snippetLimit = 300

// ArxivProvider queries the arXiv Atom feed for academic papers.
type ArxivProvider struct {
	Client    *http.Client
	UserAgent string

	// SortBy is "relevance", "lastUpdatedDate" or "submittedDate"
	// (default relevance).
	SortBy string
}

// Name returns the engine identifier.
func (p *ArxivProvider) Name() string { return "arxiv" }

// Available always reports true: the feed needs no credentials.
func (p *ArxivProvider) Available(_ context.Context) bool { return true }

// Search queries the arXiv API and returns results with academic metadata
// (authors, categories, identifier, publication date).
func (p *ArxivProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	maxResults = clamp(maxResults, 10, 1, 100)

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "relevance"
	}

	terms := strings.Fields(query)
	reqURL := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=%s&sortOrder=descending",
		arxivAPIBase, strings.Join(terms, "+"), maxResults, sortBy)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	var results []types.SearchResult
	for i, entry := range feed.Entries {
		if i >= maxResults {
			break
		}

		var authors []string
		for _, a := range entry.Authors {
			authors = append(authors, strings.TrimSpace(a.Name))
		}
		var categories []string
		for _, c := range entry.Categories {
			categories = append(categories, c.Term)
		}

		r := types.SearchResult{
			Title:          strings.TrimSpace(entry.Title),
			URL:            entry.Link(),
			Snippet:        truncateSnippet(strings.TrimSpace(entry.Summary)),
			Source:         arxivDomain,
			Rank:           i + 1,
			RelevanceScore: positionScore(i, total),
			Metadata: map[string]any{
				"authors":    authors,
				"categories": categories,
				"arxiv_id":   extractArxivID(entry.ID),
				"published":  entry.Published,
			},
		}
		results = append(results, r)
	}
	return results, nil
}

// truncateSnippet shortens long abstracts, keeping whole runes.
func truncateSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLimit {
		return s
	}
	return string(runes[:snippetLimit-3]) + "..."
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Link returns the abstract page URL for the entry, falling back to the
// feed <id>, which is also an abs URL.
func (e arxivEntry) Link() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" && l.Href != "" {
			return l.Href
		}
	}
	return e.ID
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
