// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deepresearch pipeline.
package types

// SearchResult is the normalized record every search provider returns.
// Results are created by a provider adapter at query time and are immutable
// afterwards; the merge stage and content generation only read them.
type SearchResult struct {
	// Title is the result title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// URL is the result link. Empty only for synthesized-answer entries.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short description or abstract for the result.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source is the registrable domain of URL (e.g. "arxiv.org"), never the
	// provider's engine name. The single exception is the
	// "<provider>_answer" sentinel used for synthesized answers that carry
	// no URL.
	Source string `json:"source" yaml:"source"`

	// Rank is the 1-based position reported by the provider. Synthesized
	// answers use rank 0 so they sort ahead of ordinary hits.
	Rank int `json:"rank" yaml:"rank"`

	// RelevanceScore is a value between 0.0 and 1.0 used for ranking.
	RelevanceScore float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// Metadata carries provider-specific extras (academic fields such as
	// authors, categories and identifiers; web fields such as age).
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// TaskType is the abstract capability category a planner step requires.
type TaskType string

const (
	TaskSearch   TaskType = "search"
	TaskAnalysis TaskType = "analysis"
	TaskFile     TaskType = "file"
	TaskScript   TaskType = "script"
	TaskLLM      TaskType = "llm"
	TaskBrowser  TaskType = "browser"
)

// TaskTypes lists every capability the planner can emit.
var TaskTypes = []TaskType{TaskSearch, TaskAnalysis, TaskFile, TaskScript, TaskLLM, TaskBrowser}

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	for _, known := range TaskTypes {
		if t == known {
			return true
		}
	}
	return false
}
