// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"encoding/json"

	"github.com/pdiddy/deepresearch/internal/httputil"
	"github.com/pdiddy/deepresearch/internal/urlutil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// duckduckgoAPIBase is the DuckDuckGo instant-answer endpoint. Declared as a
// var so tests can substitute an httptest server.
var duckduckgoAPIBase = "https://api.duckduckgo.com/"

// DuckDuckGoProvider queries DuckDuckGo's keyless instant-answer API.
// Because the upstream throttles anonymous clients aggressively, the
// provider spaces its own requests by MinInterval and backs off on 429
// through the shared retry helper. Both pieces of rate-limit state are
// provider-local and mutex-guarded, so concurrent planner steps that land on
// the same provider serialize instead of racing.
type DuckDuckGoProvider struct {
	Client *http.Client

	// MinInterval is the minimum spacing between consecutive requests.
	MinInterval time.Duration

	// MaxRetries bounds the 429 backoff loop (0 means the shared default).
	MaxRetries int

	UserAgent string

	mu       sync.Mutex
	lastCall time.Time
}

// Name returns the engine identifier.
func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// Available always reports true: the API needs no credentials.
func (p *DuckDuckGoProvider) Available(_ context.Context) bool { return true }

// Search queries the instant-answer API and returns normalized results.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty DuckDuckGo query")
	}
	maxResults = clamp(maxResults, 10, 1, 25)

	if err := p.throttle(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":           {query},
		"format":      {"json"},
		"no_redirect": {"1"},
		"no_html":     {"1"},
	}
	reqURL := duckduckgoAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, p.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo API returned HTTP %d", resp.StatusCode)
	}

	var dr duckduckgoResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo response: %w", err)
	}

	var results []types.SearchResult

	// The abstract is the best single hit when present; it carries a real
	// source URL, so the domain rule applies as usual.
	if dr.AbstractText != "" && dr.AbstractURL != "" {
		results = append(results, types.SearchResult{
			Title:          firstNonEmpty(dr.Heading, dr.AbstractText),
			URL:            dr.AbstractURL,
			Snippet:        dr.AbstractText,
			Source:         urlutil.Domain(dr.AbstractURL),
			Rank:           1,
			RelevanceScore: 1.0,
		})
	}

	for _, topic := range flattenTopics(dr.RelatedTopics) {
		if len(results) >= maxResults {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:   topicTitle(topic.Text),
			URL:     topic.FirstURL,
			Snippet: topic.Text,
			Source:  urlutil.Domain(topic.FirstURL),
			Rank:    len(results) + 1,
		})
	}

	total := len(results)
	for i := range results {
		if results[i].RelevanceScore == 0 {
			results[i].RelevanceScore = positionScore(i, total)
		}
	}

	p.markCall()
	return results, nil
}

// throttle waits until MinInterval has passed since the previous request.
// The wait honors context cancellation.
func (p *DuckDuckGoProvider) throttle(ctx context.Context) error {
	if p.MinInterval <= 0 {
		return nil
	}

	p.mu.Lock()
	wait := p.MinInterval - time.Since(p.lastCall)
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (p *DuckDuckGoProvider) markCall() {
	p.mu.Lock()
	p.lastCall = time.Now()
	p.mu.Unlock()
}

// firstNonEmpty returns a when non-empty, otherwise b.
func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// topicTitle derives a short title from the "Title - description" shape of
// instant-answer topic text.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	return text
}

// flattenTopics expands nested topic groups into a flat list, preserving
// the upstream order.
func flattenTopics(topics []duckduckgoTopic) []duckduckgoTopic {
	var flat []duckduckgoTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			flat = append(flat, flattenTopics(t.Topics)...)
			continue
		}
		flat = append(flat, t)
	}
	return flat
}

// DuckDuckGo instant-answer API JSON structures.
type duckduckgoResponse struct {
	Heading       string            `json:"Heading"`
	AbstractText  string            `json:"AbstractText"`
	AbstractURL   string            `json:"AbstractURL"`
	RelatedTopics []duckduckgoTopic `json:"RelatedTopics"`
}

type duckduckgoTopic struct {
	FirstURL string            `json:"FirstURL"`
	Text     string            `json:"Text"`
	Topics   []duckduckgoTopic `json:"Topics"`
}
