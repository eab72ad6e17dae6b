// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// FileTool reads local files into the run context, for research that draws
// on prior reports or user-supplied notes. When Root is set, paths are
// confined to it; escape attempts fail rather than read outside.
//
// Parameters: "path" (required), "max_bytes".
type FileTool struct {
	Root     string
	MaxBytes int
}

func (t *FileTool) Name() string               { return "file_reader" }
func (t *FileTool) Capability() types.TaskType { return types.TaskFile }

func (t *FileTool) Execute(ctx context.Context, params map[string]any) types.ToolResult {
	start := time.Now()

	path := strParam(params, "path")
	if path == "" {
		return types.Failure(fmt.Errorf("file step has no path"), time.Since(start))
	}

	if t.Root != "" {
		resolved := filepath.Join(t.Root, path)
		rel, err := filepath.Rel(t.Root, resolved)
		if err != nil || strings.HasPrefix(rel, "..") {
			return types.Failure(fmt.Errorf("path %q escapes root", path), time.Since(start))
		}
		path = resolved
	}

	if err := ctx.Err(); err != nil {
		return types.Failure(err, time.Since(start))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.Failure(fmt.Errorf("reading %s: %w", path, err), time.Since(start))
	}

	limit := intParam(params, "max_bytes", t.MaxBytes)
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}

	return types.ToolResult{
		Success:  true,
		Output:   string(data),
		Duration: time.Since(start),
	}
}
