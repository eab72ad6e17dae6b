// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline turns a research topic into a structured report outline
// by prompting the model for YAML. Models drift from requested formats, so
// parsing is forgiving: fenced code blocks are stripped and a plain-list
// fallback handles responses that are not valid YAML at all.
package outline

import (
	"context"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

const outlineSystemPrompt = `You are a research planner. Given a topic, produce a report outline as YAML with this exact shape:

title: <report title>
sections:
  - title: <section title>
    focus: <one sentence describing what this section should cover>

Respond with YAML only, no prose and no code fences.`

// Generate asks the model for an outline on topic with at most maxSections
// sections. The model's section count is advisory; the result is truncated
// when it overruns.
func Generate(ctx context.Context, client llm.Client, topic string, maxSections int) (types.Outline, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return types.Outline{}, fmt.Errorf("empty topic")
	}
	if maxSections <= 0 {
		maxSections = 6
	}

	prompt := fmt.Sprintf("Topic: %s\n\nProduce an outline with at most %d sections.", topic, maxSections)
	raw, err := client.Generate(ctx, llm.Request{System: outlineSystemPrompt, Prompt: prompt})
	if err != nil {
		return types.Outline{}, fmt.Errorf("generating outline: %w", err)
	}

	outline := Parse(raw, topic)
	if len(outline.Sections) == 0 {
		return types.Outline{}, fmt.Errorf("outline for %q has no sections", topic)
	}
	if len(outline.Sections) > maxSections {
		outline.Sections = outline.Sections[:maxSections]
	}
	return outline, nil
}

// Parse extracts an outline from model output. It tries YAML first, then
// falls back to reading list lines. topic seeds the title when the model
// omits one.
func Parse(raw, topic string) types.Outline {
	cleaned := stripFences(raw)

	var outline types.Outline
	if err := yaml.Unmarshal([]byte(cleaned), &outline); err == nil && len(outline.Sections) > 0 {
		if strings.TrimSpace(outline.Title) == "" {
			outline.Title = topic
		}
		return normalize(outline)
	}

	return normalize(parseLines(cleaned, topic))
}

// normalize trims whitespace and drops sections without a title.
func normalize(o types.Outline) types.Outline {
	o.Title = strings.TrimSpace(o.Title)
	sections := o.Sections[:0]
	for _, s := range o.Sections {
		s.Title = strings.TrimSpace(s.Title)
		s.Focus = strings.TrimSpace(s.Focus)
		if s.Title == "" {
			continue
		}
		sections = append(sections, s)
	}
	o.Sections = sections
	return o
}

// parseLines handles non-YAML responses: each bullet or numbered line
// becomes a section, with an optional "Title: focus" split.
func parseLines(raw, topic string) types.Outline {
	outline := types.Outline{Title: topic}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		title, focus := line, ""
		if idx := strings.Index(line, ":"); idx > 0 && idx < len(line)-1 {
			title, focus = line[:idx], strings.TrimSpace(line[idx+1:])
		}
		outline.Sections = append(outline.Sections, types.Section{Title: title, Focus: focus})
	}
	return outline
}

// stripFences removes a surrounding Markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
