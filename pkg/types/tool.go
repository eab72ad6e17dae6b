// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ToolResult is the uniform envelope every tool returns. The planner's
// retry and fallback logic is tool-agnostic because search, script, file,
// browser and LLM tools all report through this one shape. Tool errors are
// carried in Error with Success false; they never surface as Go errors to
// the planner.
type ToolResult struct {
	// Success reports whether the invocation produced a usable Output.
	Success bool `json:"success"`

	// Output is the tool payload: []SearchResult for search tools, a string
	// for generation tools, and so on.
	Output any `json:"output,omitempty"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`

	// Duration is the wall-clock time the invocation took.
	Duration time.Duration `json:"duration"`
}

// Failure builds a failed ToolResult with the given error message.
func Failure(err error, duration time.Duration) ToolResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ToolResult{Success: false, Error: msg, Duration: duration}
}
