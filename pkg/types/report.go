// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Section is one planned part of the report.
type Section struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Focus is a one-line description of what the section should cover;
	// it seeds both the search query and the generation prompt.
	Focus string `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// Outline is the LLM-produced structure of a report.
type Outline struct {
	Title    string    `json:"title" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// ReportSection is a rendered section with its supporting evidence.
type ReportSection struct {
	Title string `json:"title" yaml:"title"`

	// Content is the generated Markdown body.
	Content string `json:"content" yaml:"content"`

	// Citations lists the search results that back the section. A section
	// whose search step failed has none; it still renders, degraded.
	Citations []SearchResult `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Report is the assembled output of a research run.
type Report struct {
	Topic string `json:"topic" yaml:"topic"`
	Title string `json:"title" yaml:"title"`

	// Summary is the executive summary produced by the final plan step;
	// empty when that step did not succeed.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	Sections    []ReportSection `json:"sections" yaml:"sections"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
}
