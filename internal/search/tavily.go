// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/deepresearch/internal/httputil"
	"github.com/pdiddy/deepresearch/internal/urlutil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// tavilyAPIBase is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com/search"

// tavilyAnswerSource marks the synthesized-answer entry Tavily can return.
// It is the only permitted non-domain value for SearchResult.Source.
const tavilyAnswerSource = "tavily_answer"

// TavilyProvider queries the Tavily AI-optimized search API.
type TavilyProvider struct {
	Client *http.Client
	APIKey string

	// IncludeAnswer asks Tavily for a synthesized answer in addition to
	// ordinary web hits; it is returned as a rank-0 entry.
	IncludeAnswer bool

	// MaxRetries bounds the 429 backoff loop (0 means the shared default).
	MaxRetries int

	UserAgent string
}

// Name returns the engine identifier.
func (p *TavilyProvider) Name() string { return "tavily" }

// Available reports whether the API key is configured.
func (p *TavilyProvider) Available(_ context.Context) bool { return p.APIKey != "" }

// Search queries Tavily and returns normalized results.
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Tavily query")
	}
	maxResults = clamp(maxResults, 10, 1, 50)

	payload := tavilyRequest{
		APIKey:        p.APIKey,
		Query:         query,
		SearchDepth:   "advanced",
		IncludeAnswer: p.IncludeAnswer,
		MaxResults:    maxResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding Tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, p.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily API returned HTTP %d", resp.StatusCode)
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	var results []types.SearchResult
	total := len(tr.Results)
	for i, hit := range tr.Results {
		if i >= maxResults {
			break
		}
		r := types.SearchResult{
			Title:          hit.Title,
			URL:            hit.URL,
			Snippet:        hit.Content,
			Source:         urlutil.Domain(hit.URL),
			Rank:           i + 1,
			RelevanceScore: hit.Score,
			Metadata:       map[string]any{},
		}
		if r.RelevanceScore == 0 {
			r.RelevanceScore = positionScore(i, total)
		}
		if hit.PublishedDate != "" {
			r.Metadata["published_date"] = hit.PublishedDate
		}
		if hit.Score > 0 {
			r.Metadata["score"] = hit.Score
		}
		if len(r.Metadata) == 0 {
			r.Metadata = nil
		}
		results = append(results, r)
	}

	// The synthesized answer has no URL, so the domain rule cannot apply;
	// it gets the sentinel source and leads the list at rank 0.
	if p.IncludeAnswer && strings.TrimSpace(tr.Answer) != "" {
		answer := types.SearchResult{
			Title:          "AI Generated Answer",
			Snippet:        tr.Answer,
			Source:         tavilyAnswerSource,
			Rank:           0,
			RelevanceScore: 1.0,
			Metadata:       map[string]any{"type": "answer"},
		}
		results = append([]types.SearchResult{answer}, results...)
	}

	return results, nil
}

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResponse struct {
	Answer  string      `json:"answer"`
	Results []tavilyHit `json:"results"`
}

type tavilyHit struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}
