// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import "errors"

var (
	// ErrEmptyPlan reports a plan with no steps.
	ErrEmptyPlan = errors.New("plan has no steps")

	// ErrUnknownDependency reports a step depending on an id the plan
	// does not contain.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrDependencyCycle reports steps that can never become ready.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrFailureThreshold reports a run aborted because too large a share
	// of its steps failed. The RunResult returned alongside it retains
	// every completed output.
	ErrFailureThreshold = errors.New("failure threshold exceeded")
)
