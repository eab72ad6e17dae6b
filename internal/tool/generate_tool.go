// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// GenerateTool produces text with the configured model. It serves both the
// llm and analysis capabilities; analysis steps differ only in prompt.
//
// Parameters: "prompt" (required), "system", "max_tokens".
type GenerateTool struct {
	Client llm.Client
}

func (t *GenerateTool) Name() string               { return "llm_generate" }
func (t *GenerateTool) Capability() types.TaskType { return types.TaskLLM }

func (t *GenerateTool) Execute(ctx context.Context, params map[string]any) types.ToolResult {
	start := time.Now()

	prompt := strParam(params, "prompt")
	if prompt == "" {
		return types.Failure(fmt.Errorf("generation step has no prompt"), time.Since(start))
	}

	text, err := t.Client.Generate(ctx, llm.Request{
		System:    strParam(params, "system"),
		Prompt:    prompt,
		MaxTokens: intParam(params, "max_tokens", 0),
	})
	if err != nil {
		return types.Failure(err, time.Since(start))
	}

	return types.ToolResult{
		Success:  true,
		Output:   text,
		Duration: time.Since(start),
	}
}
