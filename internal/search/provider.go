// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web and academic search APIs through a uniform
// provider contract and merges their results. The Manager owns the provider
// registry, the fallback chain and deduplication; each provider only knows
// how to talk to its own API.
package search

import (
	"context"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// Provider searches a single engine. Each provider (Tavily, DuckDuckGo,
// Brave, arXiv) implements this interface per the Strategy pattern.
type Provider interface {
	// Name returns the engine identifier used for registration and
	// explicit engine selection. It must never be copied into a result's
	// Source field.
	Name() string

	// Search runs one query. maxResults is clamped to the provider's
	// allowed range. Transport failures, malformed responses and exhausted
	// rate limits surface as errors; the Manager isolates them.
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)

	// Available reports whether the provider can serve queries: required
	// credentials present and, where cheap to check, the upstream
	// reachable. A missing API key means unavailable, never a crash.
	Available(ctx context.Context) bool
}

// clamp bounds n to [lo, hi], substituting def when n is unset.
func clamp(n, def, lo, hi int) int {
	if n <= 0 {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// positionScore converts a provider-reported rank into a relevance score:
// the first of n results scores 1.0, the last 0.1, linearly in between.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}
