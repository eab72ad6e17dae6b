// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/deepresearch/internal/tool"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// RunResult is the outcome of one plan execution. Outputs holds every
// completed step's result keyed by step id, regardless of how the run
// ended; partial progress is never discarded.
type RunResult struct {
	PlanID    string
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled int
	Outputs   map[string]types.ToolResult
	Errors    map[string]string
	Duration  time.Duration
}

// Executor runs plans against a tool registry.
type Executor struct {
	Registry *tool.Registry
	Config   types.ExecutionConfig

	// Out receives progress lines; nil discards them.
	Out io.Writer
}

// NewExecutor builds an executor writing progress to out.
func NewExecutor(registry *tool.Registry, cfg types.ExecutionConfig, out io.Writer) *Executor {
	if out == nil {
		out = io.Discard
	}
	return &Executor{Registry: registry, Config: cfg, Out: out}
}

// Execute runs the plan to completion, dependency order respected. Steps
// whose dependencies all succeeded run together in batches of at most
// BatchSize, with at most MaxParallelTasks in flight. After each batch the
// failure rate over the whole plan is checked against FailureThreshold;
// crossing it skips everything still pending and returns the partial
// result wrapped in ErrFailureThreshold. Context cancellation marks the
// remaining steps cancelled and returns the context error; either way the
// returned RunResult keeps all completed outputs.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*RunResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &RunResult{
		PlanID:  plan.ID,
		Outputs: make(map[string]types.ToolResult),
		Errors:  make(map[string]string),
	}

	batchSize := e.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}
	maxParallel := e.Config.MaxParallelTasks
	if maxParallel <= 0 {
		maxParallel = 3
	}

	// Run context: step outputs appended under the step's own id, so
	// concurrent writers never share a key.
	var mu sync.Mutex

	total := len(plan.Steps)

	for {
		if ctx.Err() != nil {
			e.cancelRemaining(plan, result)
			result.Duration = time.Since(start)
			return result, ctx.Err()
		}

		batch := e.nextBatch(plan, batchSize)
		if len(batch) == 0 {
			// Nothing ready: skip steps whose dependencies can no
			// longer succeed, then re-check.
			if e.skipBlocked(plan, result) {
				continue
			}
			break
		}

		sem := make(chan struct{}, maxParallel)
		var wg sync.WaitGroup
		for _, step := range batch {
			wg.Add(1)
			step.Status = StatusRunning
			go func(step *Step) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				res := e.runStep(ctx, step, result, &mu)

				mu.Lock()
				defer mu.Unlock()
				step.Result = &res
				if res.Success {
					step.Status = StatusSucceeded
					result.Succeeded++
					result.Outputs[step.ID] = res
					fmt.Fprintf(e.Out, "step %s succeeded (%s)\n", step.ID, res.Duration.Round(time.Millisecond))
				} else if ctx.Err() != nil {
					step.Status = StatusCancelled
					result.Cancelled++
					fmt.Fprintf(e.Out, "step %s cancelled\n", step.ID)
				} else {
					step.Status = StatusFailed
					result.Failed++
					result.Errors[step.ID] = res.Error
					fmt.Fprintf(e.Out, "step %s failed: %s\n", step.ID, res.Error)
				}
			}(step)
		}
		wg.Wait()

		if ctx.Err() != nil {
			e.cancelRemaining(plan, result)
			result.Duration = time.Since(start)
			return result, ctx.Err()
		}

		if e.Config.FailureThreshold > 0 && total > 0 {
			rate := float64(result.Failed) / float64(total)
			if rate > e.Config.FailureThreshold {
				e.skipRemaining(plan, result)
				result.Duration = time.Since(start)
				return result, fmt.Errorf("%w: %d of %d steps failed", ErrFailureThreshold, result.Failed, total)
			}
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// nextBatch returns up to limit pending steps whose dependencies have all
// succeeded, in plan order. Best-effort steps are ready as soon as every
// dependency has settled, even if some failed or were skipped.
func (e *Executor) nextBatch(plan *Plan, limit int) []*Step {
	var batch []*Step
	for _, step := range plan.Steps {
		if step.Status != StatusPending {
			continue
		}
		ready := true
		for _, dep := range step.DependsOn {
			d := plan.step(dep)
			if d == nil {
				ready = false
				break
			}
			if d.Status == StatusSucceeded {
				continue
			}
			if step.BestEffort && (d.Status == StatusFailed || d.Status == StatusSkipped) {
				continue
			}
			ready = false
			break
		}
		if ready {
			batch = append(batch, step)
			if len(batch) == limit {
				break
			}
		}
	}
	return batch
}

// skipBlocked marks pending steps whose dependencies failed, were skipped
// or were cancelled as skipped. Best-effort steps tolerate failed and
// skipped dependencies; only a cancelled dependency blocks them. Returns
// whether anything changed.
func (e *Executor) skipBlocked(plan *Plan, result *RunResult) bool {
	changed := false
	for _, step := range plan.Steps {
		if step.Status != StatusPending {
			continue
		}
		for _, dep := range step.DependsOn {
			d := plan.step(dep)
			if d == nil {
				continue
			}
			blocked := d.Status == StatusCancelled ||
				(!step.BestEffort && (d.Status == StatusFailed || d.Status == StatusSkipped))
			if blocked {
				step.Status = StatusSkipped
				result.Skipped++
				result.Errors[step.ID] = fmt.Sprintf("dependency %s did not succeed", dep)
				fmt.Fprintf(e.Out, "step %s skipped: dependency %s did not succeed\n", step.ID, dep)
				changed = true
				break
			}
		}
	}
	return changed
}

// skipRemaining marks everything still pending as skipped.
func (e *Executor) skipRemaining(plan *Plan, result *RunResult) {
	for _, step := range plan.Steps {
		if step.Status == StatusPending {
			step.Status = StatusSkipped
			result.Skipped++
		}
	}
}

// cancelRemaining marks everything still pending as cancelled.
func (e *Executor) cancelRemaining(plan *Plan, result *RunResult) {
	for _, step := range plan.Steps {
		if step.Status == StatusPending || step.Status == StatusRunning {
			step.Status = StatusCancelled
			result.Cancelled++
		}
	}
}

// runStep resolves the step's tools and tries them in priority order until
// one succeeds. The step's params are template-resolved against completed
// outputs first.
func (e *Executor) runStep(ctx context.Context, step *Step, result *RunResult, mu *sync.Mutex) types.ToolResult {
	start := time.Now()

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = e.Config.TimeoutPerBatch
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tools, err := e.Registry.Resolve(step.Type)
	if err != nil {
		return types.Failure(err, time.Since(start))
	}

	mu.Lock()
	params := resolveParams(step.Params, result.Outputs)
	mu.Unlock()

	var last types.ToolResult
	for _, t := range tools {
		last = t.Execute(ctx, params)
		if last.Success {
			return last
		}
		if ctx.Err() != nil {
			break
		}
		fmt.Fprintf(e.Out, "step %s: tool %s failed, trying next: %s\n", step.ID, t.Name(), last.Error)
	}
	last.Duration = time.Since(start)
	return last
}

// stepRef matches a "${<step id>}" output reference in a string parameter.
var stepRef = regexp.MustCompile(`\$\{[^}]+\}`)

// missingOutputText replaces references to steps that produced no output,
// so a best-effort step still gets a well-formed prompt when its
// dependency failed.
const missingOutputText = "(no output available)"

// resolveParams substitutes "${<step id>}" references in string parameters
// with the rendered output of the named step. References to steps with no
// recorded output resolve to a placeholder.
func resolveParams(params map[string]any, outputs map[string]types.ToolResult) map[string]any {
	if len(params) == 0 {
		return params
	}
	resolved := make(map[string]any, len(params))
	for key, value := range params {
		if s, ok := value.(string); ok && strings.Contains(s, "${") {
			for id, out := range outputs {
				marker := "${" + id + "}"
				if strings.Contains(s, marker) {
					s = strings.ReplaceAll(s, marker, renderOutput(out.Output))
				}
			}
			resolved[key] = stepRef.ReplaceAllString(s, missingOutputText)
			continue
		}
		resolved[key] = value
	}
	return resolved
}

// renderOutput turns a step output into prompt-friendly text.
func renderOutput(output any) string {
	switch v := output.(type) {
	case string:
		return v
	case []types.SearchResult:
		var b strings.Builder
		for i, r := range v {
			fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
		}
		return b.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
