// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool defines the execution contract between plan steps and the
// things that can run them. Each Tool serves one capability; the Registry
// maps a step's task type to the tools that can serve it, in priority order,
// so the executor can fall through to an alternative when a tool fails.
package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deepresearch/pkg/types"
)

var (
	// ErrUnsupportedCapability reports a task type no registered tool serves.
	ErrUnsupportedCapability = errors.New("no tool registered for capability")

	// ErrUnknownTool reports a mapping that names a tool never registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool executes one kind of work. Implementations must be safe for
// concurrent use: the executor runs steps in parallel.
type Tool interface {
	// Name identifies the tool in mappings and logs.
	Name() string

	// Capability is the task type this tool serves.
	Capability() types.TaskType

	// Execute runs the tool with step parameters. Failures are reported
	// inside the ToolResult; an error return is reserved for the
	// context being done.
	Execute(ctx context.Context, params map[string]any) types.ToolResult
}

// Mapping binds a capability to an ordered list of tool names. Earlier
// names are tried first. When several mappings target the same capability,
// higher-priority mappings contribute their tools ahead of lower ones;
// equal priority preserves declaration order.
type Mapping struct {
	Capability types.TaskType `yaml:"capability" json:"capability"`
	Tools      []string       `yaml:"tools" json:"tools"`
	Priority   int            `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// LoadMappings reads a capability mapping table from a YAML file. Every
// entry must name a known capability and at least one tool; tool existence
// is checked later by Registry.Validate, once tools are registered.
func LoadMappings(path string) ([]Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capability mappings: %w", err)
	}

	var mappings []Mapping
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("parsing capability mappings %s: %w", path, err)
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("capability mappings %s: no entries", path)
	}
	for i, m := range mappings {
		if !m.Capability.Valid() {
			return nil, fmt.Errorf("capability mappings %s: entry %d has unknown capability %q", path, i+1, m.Capability)
		}
		if len(m.Tools) == 0 {
			return nil, fmt.Errorf("capability mappings %s: entry %d (%s) names no tools", path, i+1, m.Capability)
		}
	}
	return mappings, nil
}

// DefaultMappings routes each task type to its standard tool.
func DefaultMappings() []Mapping {
	return []Mapping{
		{Capability: types.TaskSearch, Tools: []string{"web_search"}},
		{Capability: types.TaskLLM, Tools: []string{"llm_generate"}},
		{Capability: types.TaskAnalysis, Tools: []string{"llm_generate"}},
		{Capability: types.TaskFile, Tools: []string{"file_reader"}},
		{Capability: types.TaskScript, Tools: []string{"script_runner"}},
		{Capability: types.TaskBrowser, Tools: []string{"browser_fetch"}},
	}
}

// Registry resolves task types to tools. Registration happens at startup;
// Resolve is safe to call concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	mappings map[types.TaskType][]string
}

// NewRegistry builds a registry with the given capability mappings.
// Passing nil applies DefaultMappings.
func NewRegistry(mappings []Mapping) *Registry {
	if mappings == nil {
		mappings = DefaultMappings()
	}
	r := &Registry{
		tools:    make(map[string]Tool),
		mappings: make(map[types.TaskType][]string),
	}
	ordered := make([]Mapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	for _, m := range ordered {
		r.mappings[m.Capability] = append(r.mappings[m.Capability], m.Tools...)
	}
	return r
}

// Register adds a tool. Re-registering a name overwrites the prior entry.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the tools serving taskType, in mapping order. Mapped
// names without a registered tool are skipped; when none remain the
// capability is unsupported.
func (r *Registry) Resolve(taskType types.TaskType) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, ok := r.mappings[taskType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCapability, taskType)
	}

	var tools []Tool
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			tools = append(tools, t)
		}
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCapability, taskType)
	}
	return tools, nil
}

// Validate checks that every mapped tool name is registered, so
// configuration mistakes surface at startup instead of mid-run.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for capability, names := range r.mappings {
		for _, name := range names {
			if _, ok := r.tools[name]; !ok {
				return fmt.Errorf("%w: %q mapped to capability %s", ErrUnknownTool, name, capability)
			}
		}
	}
	return nil
}

// strParam reads a string parameter, tolerating absence.
func strParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// intParam reads an integer parameter. JSON decoding yields float64, YAML
// yields int; both are accepted.
func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
