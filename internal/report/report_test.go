// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/deepresearch/pkg/types"
)

func sampleSections() []types.ReportSection {
	return []types.ReportSection{
		{
			Title:   "Background",
			Content: "The field emerged in the 1980s [1] and accelerated recently [2].",
			Citations: []types.SearchResult{
				{Title: "A History", URL: "https://example.com/history", Source: "example.com"},
				{Title: "Recent Advances", URL: "https://phys.example.org/advances", Source: "phys.example.org"},
			},
		},
		{
			Title:   "Open Problems",
			Content: "Several questions remain unsettled.",
		},
	}
}

func TestRender(t *testing.T) {
	r := Assemble("test topic", "A Study", sampleSections(), "One-paragraph summary.")
	out := Render(r)

	if !strings.HasPrefix(out, "# A Study\n") {
		t.Errorf("output does not start with the title:\n%s", out)
	}
	if !strings.Contains(out, "## Summary\n\nOne-paragraph summary.") {
		t.Error("summary section missing")
	}
	if !strings.Contains(out, "## Background") || !strings.Contains(out, "## Open Problems") {
		t.Error("section headings missing")
	}
	if !strings.Contains(out, "1. [A History](https://example.com/history) — example.com") {
		t.Errorf("numbered reference missing:\n%s", out)
	}
}

func TestRenderDegradedSection(t *testing.T) {
	sections := []types.ReportSection{{Title: "Empty", Content: ""}}
	out := Render(Assemble("topic", "", sections, ""))

	// A section with no content and no citations still renders.
	if !strings.Contains(out, "## Empty") {
		t.Error("degraded section heading missing")
	}
	if !strings.Contains(out, "_No content could be generated") {
		t.Error("degraded section placeholder missing")
	}
	if strings.Contains(out, "### References") {
		t.Error("references heading rendered for section without citations")
	}
}

func TestAssembleFallsBackToTopicTitle(t *testing.T) {
	r := Assemble("my topic", "  ", nil, "")
	if r.Title != "my topic" {
		t.Errorf("Title = %q", r.Title)
	}
}

func TestValidateCitations(t *testing.T) {
	section := types.ReportSection{
		Content: "Claims [1] and [2, 5] plus prose [not-a-citation].",
		Citations: []types.SearchResult{
			{Title: "one"}, {Title: "two"},
		},
	}
	dangling := ValidateCitations(section)
	if len(dangling) != 1 || dangling[0] != 5 {
		t.Errorf("dangling = %v, want [5]", dangling)
	}

	section.Citations = append(section.Citations,
		types.SearchResult{}, types.SearchResult{}, types.SearchResult{})
	if got := ValidateCitations(section); len(got) != 0 {
		t.Errorf("dangling = %v after adding references", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := Assemble("Quantum Computing: 2026!", "", sampleSections(), "")
	r.GeneratedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	path, err := WriteFile(r, dir)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !strings.Contains(path, "quantum-computing-2026-20260801-120000.md") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report back: %v", err)
	}
	if !strings.Contains(string(data), "## Background") {
		t.Error("written report missing content")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quantum Computing", "quantum-computing"},
		{"  A/B testing & stats  ", "a-b-testing-stats"},
		{"???", "report"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
