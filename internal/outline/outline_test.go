// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"context"
	"fmt"
	"testing"

	"github.com/pdiddy/deepresearch/internal/llm"
)

// cannedClient returns a fixed response for every request.
type cannedClient struct {
	response string
	err      error
}

func (c *cannedClient) Generate(_ context.Context, _ llm.Request) (string, error) {
	return c.response, c.err
}

const yamlOutline = `title: The State of Quantum Computing
sections:
  - title: Hardware Progress
    focus: Recent advances in qubit counts and error rates.
  - title: Algorithms
    focus: Algorithms with near-term practical value.
  - title: Outlook
    focus: Plausible timelines for useful quantum advantage.
`

func TestGenerateParsesYAML(t *testing.T) {
	client := &cannedClient{response: yamlOutline}

	got, err := Generate(context.Background(), client, "quantum computing", 6)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Title != "The State of Quantum Computing" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3", len(got.Sections))
	}
	if got.Sections[0].Title != "Hardware Progress" {
		t.Errorf("Sections[0].Title = %q", got.Sections[0].Title)
	}
	if got.Sections[1].Focus == "" {
		t.Error("Sections[1].Focus is empty")
	}
}

func TestGenerateStripsCodeFence(t *testing.T) {
	client := &cannedClient{response: "```yaml\n" + yamlOutline + "```"}

	got, err := Generate(context.Background(), client, "quantum computing", 6)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got.Sections) != 3 {
		t.Errorf("len(Sections) = %d, want fenced YAML parsed", len(got.Sections))
	}
}

func TestGenerateTruncatesToMaxSections(t *testing.T) {
	client := &cannedClient{response: yamlOutline}

	got, err := Generate(context.Background(), client, "quantum computing", 2)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got.Sections) != 2 {
		t.Errorf("len(Sections) = %d, want truncated to 2", len(got.Sections))
	}
}

func TestGenerateLineFallback(t *testing.T) {
	client := &cannedClient{response: `Here is the outline:
- Background: How the field got here.
- Key Players
- Open Problems: What remains unsolved.
`}

	got, err := Generate(context.Background(), client, "some topic", 6)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Title != "some topic" {
		t.Errorf("Title = %q, want topic as fallback title", got.Title)
	}
	// "Here is the outline:" has an empty remainder after the colon hint
	// boundary, so it still parses as a section; the list lines follow.
	var titles []string
	for _, s := range got.Sections {
		titles = append(titles, s.Title)
	}
	found := false
	for _, title := range titles {
		if title == "Key Players" {
			found = true
		}
	}
	if !found {
		t.Errorf("sections = %v, want plain list line kept", titles)
	}
	for _, s := range got.Sections {
		if s.Title == "Background" && s.Focus != "How the field got here." {
			t.Errorf("Background focus = %q", s.Focus)
		}
	}
}

func TestGenerateErrorPropagates(t *testing.T) {
	client := &cannedClient{err: fmt.Errorf("model unavailable")}
	if _, err := Generate(context.Background(), client, "topic", 4); err == nil {
		t.Fatal("expected error from failing client")
	}
}

func TestGenerateEmptyTopic(t *testing.T) {
	if _, err := Generate(context.Background(), &cannedClient{}, "  ", 4); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestParseNoSections(t *testing.T) {
	got := Parse("", "topic")
	if len(got.Sections) != 0 {
		t.Errorf("Parse(\"\") produced %d sections", len(got.Sections))
	}
}
