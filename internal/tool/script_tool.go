// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// ScriptTool runs short scripts through a configured interpreter, feeding
// the code on stdin. Plans use it for small data-shaping steps between
// retrieval and synthesis.
//
// Parameters: "code" (required), "timeout_seconds".
type ScriptTool struct {
	// Interpreter is the command to run, e.g. "python3" or "sh".
	Interpreter string

	// Args precede the script; the script itself arrives on stdin.
	Args []string

	// Timeout bounds a single execution when the step sets none.
	Timeout time.Duration
}

func (t *ScriptTool) Name() string               { return "script_runner" }
func (t *ScriptTool) Capability() types.TaskType { return types.TaskScript }

func (t *ScriptTool) Execute(ctx context.Context, params map[string]any) types.ToolResult {
	start := time.Now()

	code := strParam(params, "code")
	if code == "" {
		return types.Failure(fmt.Errorf("script step has no code"), time.Since(start))
	}

	timeout := t.Timeout
	if secs := intParam(params, "timeout_seconds", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	interpreter := t.Interpreter
	if interpreter == "" {
		interpreter = "sh"
	}

	cmd := exec.CommandContext(ctx, interpreter, t.Args...)
	cmd.Stdin = bytes.NewReader([]byte(code))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return types.Failure(fmt.Errorf("script timed out: %w", ctx.Err()), time.Since(start))
		}
		return types.Failure(fmt.Errorf("script failed: %w: %s", err, stderr.String()), time.Since(start))
	}

	return types.ToolResult{
		Success:  true,
		Output:   stdout.String(),
		Duration: time.Since(start),
	}
}
