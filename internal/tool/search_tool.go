// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/deepresearch/internal/search"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// SearchTool runs web searches through the shared search manager, getting
// the fallback chain and deduplication for free.
//
// Parameters: "query" (required), "engine", "max_results".
type SearchTool struct {
	Manager *search.Manager
}

func (t *SearchTool) Name() string               { return "web_search" }
func (t *SearchTool) Capability() types.TaskType { return types.TaskSearch }

func (t *SearchTool) Execute(ctx context.Context, params map[string]any) types.ToolResult {
	start := time.Now()

	query := strParam(params, "query")
	if query == "" {
		return types.Failure(fmt.Errorf("search step has no query"), time.Since(start))
	}

	results, err := t.Manager.Search(ctx, query, search.Options{
		Engine:     strParam(params, "engine"),
		MaxResults: intParam(params, "max_results", 0),
	})
	if err != nil {
		return types.Failure(err, time.Since(start))
	}

	return types.ToolResult{
		Success:  true,
		Output:   results,
		Duration: time.Since(start),
	}
}
