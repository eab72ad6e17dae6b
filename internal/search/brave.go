// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/deepresearch/internal/httputil"
	"github.com/pdiddy/deepresearch/internal/urlutil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// braveAPIBase is the Brave web search endpoint. Declared as a var so tests
// can substitute an httptest server.
var braveAPIBase = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider queries the Brave Search API.
type BraveProvider struct {
	Client *http.Client
	APIKey string

	// MaxRetries bounds the 429 backoff loop (0 means the shared default).
	MaxRetries int

	UserAgent string
}

// Name returns the engine identifier.
func (p *BraveProvider) Name() string { return "brave" }

// Available reports whether the subscription token is configured.
func (p *BraveProvider) Available(_ context.Context) bool { return p.APIKey != "" }

// Search queries Brave and returns normalized results.
func (p *BraveProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Brave query")
	}
	// Brave caps count at 20 per request.
	maxResults = clamp(maxResults, 10, 1, 20)

	params := url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := braveAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.APIKey)
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, p.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Brave API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Brave API returned HTTP %d", resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing Brave response: %w", err)
	}

	total := len(br.Web.Results)
	var results []types.SearchResult
	for i, hit := range br.Web.Results {
		if i >= maxResults {
			break
		}
		r := types.SearchResult{
			Title:          hit.Title,
			URL:            hit.URL,
			Snippet:        hit.Description,
			Source:         urlutil.Domain(hit.URL),
			Rank:           i + 1,
			RelevanceScore: positionScore(i, total),
		}
		meta := map[string]any{}
		if hit.Age != "" {
			meta["age"] = hit.Age
		}
		if hit.Language != "" {
			meta["language"] = hit.Language
		}
		if len(meta) > 0 {
			r.Metadata = meta
		}
		results = append(results, r)
	}
	return results, nil
}

// Brave API JSON structures.
type braveResponse struct {
	Web struct {
		Results []braveHit `json:"results"`
	} `json:"web"`
}

type braveHit struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	Language    string `json:"language"`
}
