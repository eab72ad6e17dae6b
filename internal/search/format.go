// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.SearchResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %-6s\n", "Rank", "Title", "Source", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range results {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		source := r.Source
		if len(source) > 24 {
			source = source[:21] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %-6.2f\n", r.Rank, title, source, r.RelevanceScore)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// FormatJSONByEngine writes a multi-engine result map as indented JSON.
func FormatJSONByEngine(byEngine map[string][]types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(byEngine)
}

// FormatComparison writes a per-engine summary of a multi-engine search.
// Engines are printed in sorted order; the per-engine result lists keep
// provider order.
func FormatComparison(byEngine map[string][]types.SearchResult, w io.Writer) {
	names := make([]string, 0, len(byEngine))
	for name := range byEngine {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		results := byEngine[name]
		fmt.Fprintf(w, "=== %s (%d results)\n", name, len(results))
		FormatTable(results, w)
		fmt.Fprintln(w)
	}
}
