// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles section drafts and their supporting search
// results into a Markdown report with a numbered references section.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// citationPattern matches numbered inline citations: [3] or [1, 4].
var citationPattern = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// Assemble builds a Report from per-section content and citations. Sections
// arrive in outline order; a section whose retrieval failed still renders,
// just with fewer (or no) references.
func Assemble(topic, title string, sections []types.ReportSection, summary string) types.Report {
	if strings.TrimSpace(title) == "" {
		title = topic
	}
	r := types.Report{
		Topic:       topic,
		Title:       title,
		Summary:     strings.TrimSpace(summary),
		Sections:    sections,
		GeneratedAt: time.Now().UTC(),
	}
	return r
}

// Render writes the report as Markdown: title, summary, sections, then a
// single numbered references list. Citation numbers restart per section in
// the prompt contract, so references are listed per section heading.
func Render(r types.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "*Generated %s*\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if r.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(r.Summary)
		b.WriteString("\n\n")
	}

	for _, section := range r.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		content := strings.TrimSpace(section.Content)
		if content == "" {
			content = "_No content could be generated for this section._"
		}
		b.WriteString(content)
		b.WriteString("\n\n")

		if len(section.Citations) > 0 {
			b.WriteString("### References\n\n")
			for i, c := range section.Citations {
				line := fmt.Sprintf("%d. %s", i+1, c.Title)
				if c.URL != "" {
					line = fmt.Sprintf("%d. [%s](%s)", i+1, c.Title, c.URL)
				}
				if c.Source != "" {
					line += " — " + c.Source
				}
				b.WriteString(line + "\n")
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteFile renders the report into dir as a slugged Markdown file and
// returns the path.
func WriteFile(r types.Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", slug(r.Topic), r.GeneratedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(Render(r)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// ValidateCitations scans a section's content for numbered citations and
// returns the indices that point past its reference list. An empty return
// means every citation resolves.
func ValidateCitations(section types.ReportSection) []int {
	seen := make(map[int]bool)
	var dangling []int
	for _, m := range citationPattern.FindAllStringSubmatch(section.Content, -1) {
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if (n < 1 || n > len(section.Citations)) && !seen[n] {
				seen[n] = true
				dangling = append(dangling, n)
			}
		}
	}
	return dangling
}

// slug lowercases a topic into a filesystem-safe name.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "report"
	}
	if len(out) > 60 {
		out = strings.TrimSuffix(out[:60], "-")
	}
	return out
}
