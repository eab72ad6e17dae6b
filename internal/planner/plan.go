// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner turns an outline into an executable research plan and
// runs it: dependency-ordered batches, a bounded worker pool, capability
// fallback across tools, and a failure threshold that aborts runs going
// badly while keeping every completed output.
package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// StepStatus tracks a step through its lifecycle.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusRunning   StepStatus = "running"
	StatusSucceeded StepStatus = "succeeded"
	StatusFailed    StepStatus = "failed"
	StatusSkipped   StepStatus = "skipped"
	StatusCancelled StepStatus = "cancelled"
)

// Step is one unit of plan work. Params may reference the output of a
// dependency as "${<step id>}"; the executor substitutes the rendered
// output before the step runs.
type Step struct {
	ID          string         `yaml:"id" json:"id"`
	Type        types.TaskType `yaml:"type" json:"type"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Params      map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	DependsOn   []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`

	// Timeout bounds this step alone; zero falls back to the configured
	// per-batch timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// BestEffort lets the step run once its dependencies have settled even
	// if some failed or were skipped. References to a dependency that
	// produced no output resolve to a placeholder. Cancellation still
	// cancels best-effort steps.
	BestEffort bool `yaml:"best_effort,omitempty" json:"best_effort,omitempty"`

	Status StepStatus        `yaml:"status,omitempty" json:"status,omitempty"`
	Result *types.ToolResult `yaml:"-" json:"-"`
}

// Plan is an ordered set of steps for one research topic.
type Plan struct {
	ID        string    `yaml:"id" json:"id"`
	Topic     string    `yaml:"topic" json:"topic"`
	Steps     []*Step   `yaml:"steps" json:"steps"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

// step returns the step with the given id, or nil.
func (p *Plan) step(id string) *Step {
	for _, s := range p.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Validate checks that every dependency names an existing step and that the
// dependency graph is acyclic.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return ErrEmptyPlan
	}

	ids := make(map[string]bool, len(p.Steps))
	for _, s := range p.Steps {
		if s.ID == "" {
			return fmt.Errorf("step of type %s has no id", s.Type)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		if !s.Type.Valid() {
			return fmt.Errorf("step %s: unknown task type %q", s.ID, s.Type)
		}
		ids[s.ID] = true
	}

	for _, s := range p.Steps {
		for _, dep := range s.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("%w: step %s depends on %q", ErrUnknownDependency, s.ID, dep)
			}
		}
	}

	// Cycle check by repeated peeling of dependency-free steps.
	remaining := make(map[string][]string, len(p.Steps))
	for _, s := range p.Steps {
		remaining[s.ID] = append([]string(nil), s.DependsOn...)
	}
	for len(remaining) > 0 {
		peeled := false
		for id, deps := range remaining {
			free := true
			for _, dep := range deps {
				if _, ok := remaining[dep]; ok {
					free = false
					break
				}
			}
			if free {
				delete(remaining, id)
				peeled = true
			}
		}
		if !peeled {
			return fmt.Errorf("%w: %d step(s) unreachable", ErrDependencyCycle, len(remaining))
		}
	}
	return nil
}

// BuildResearchPlan lays out the standard research shape: one search step
// per outline section, a synthesis step consuming it, and a final report
// step depending on every synthesis step. Synthesis and summary steps are
// best-effort: a failed search still gets a section written from whatever
// the prompt can say without sources, just with no citations to offer.
func BuildResearchPlan(topic string, outline types.Outline, cfg types.PipelineConfig) *Plan {
	plan := &Plan{
		ID:        uuid.NewString(),
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
	}

	var sectionSteps []string
	for i, section := range outline.Sections {
		searchID := fmt.Sprintf("search-%d", i+1)
		sectionID := fmt.Sprintf("section-%d", i+1)

		query := topic + " " + section.Title
		if section.Focus != "" {
			query = topic + " " + section.Focus
		}

		plan.Steps = append(plan.Steps, &Step{
			ID:          searchID,
			Type:        types.TaskSearch,
			Description: "gather sources for " + section.Title,
			Params: map[string]any{
				"query":       query,
				"max_results": cfg.Search.MaxResults,
			},
			Status: StatusPending,
		})

		plan.Steps = append(plan.Steps, &Step{
			ID:          sectionID,
			Type:        types.TaskLLM,
			Description: "write section " + section.Title,
			Params: map[string]any{
				"system": "You are a research writer. Write in Markdown, grounded in the provided sources. Cite sources inline as [N] matching their listed order. When no sources are available, still write the section from general knowledge and cite nothing.",
				"prompt": fmt.Sprintf(
					"Topic: %s\nSection: %s\nFocus: %s\n\nSources:\n${%s}\n\nWrite this section.",
					topic, section.Title, section.Focus, searchID),
			},
			DependsOn:  []string{searchID},
			BestEffort: true,
			Status:     StatusPending,
		})
		sectionSteps = append(sectionSteps, sectionID)
	}

	if len(sectionSteps) > 0 {
		prompt := "Topic: " + topic + "\n\nSection drafts:\n"
		for _, id := range sectionSteps {
			prompt += fmt.Sprintf("\n${%s}\n", id)
		}
		prompt += "\nWrite a short executive summary paragraph for the full report."

		plan.Steps = append(plan.Steps, &Step{
			ID:          "report",
			Type:        types.TaskLLM,
			Description: "summarize the report",
			Params: map[string]any{
				"system": "You are a research editor.",
				"prompt": prompt,
			},
			DependsOn:  sectionSteps,
			BestEffort: true,
			Status:     StatusPending,
		})
	}

	return plan
}
