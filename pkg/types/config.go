// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deepresearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SelectionStrategy picks the provider when a search request names no engine.
type SelectionStrategy string

const (
	StrategyPriority   SelectionStrategy = "priority"
	StrategyRoundRobin SelectionStrategy = "round_robin"
	StrategyRandom     SelectionStrategy = "random"
)

// SearchConfig holds settings for the retrieval layer.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the default maximum number of results per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// DefaultEngine is consulted first when no engine is requested and the
	// strategy is priority-based.
	DefaultEngine string `json:"default_engine" yaml:"default_engine"`

	// FallbackEngines is the ordered chain tried when the requested or
	// default engine is unavailable or returns nothing.
	FallbackEngines []string `json:"fallback_engines" yaml:"fallback_engines"`

	// Strategy selects the provider when no engine is requested:
	// priority, round_robin or random (default priority).
	Strategy SelectionStrategy `json:"strategy" yaml:"strategy"`

	// TavilyAPIKey and BraveAPIKey enable the keyed providers; an empty key
	// makes the provider report as unavailable rather than failing.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`
	BraveAPIKey  string `json:"brave_api_key,omitempty" yaml:"brave_api_key,omitempty"`

	// EnableDuckDuckGo controls the keyless provider (default true).
	EnableDuckDuckGo bool `json:"enable_duckduckgo" yaml:"enable_duckduckgo"`

	// EnableArxiv controls the academic-paper provider (default true).
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// IncludeAnswer asks providers that synthesize an answer (Tavily) to
	// include it as a rank-0 entry.
	IncludeAnswer bool `json:"include_answer" yaml:"include_answer"`

	// MinRequestInterval is the minimum spacing between calls to providers
	// that throttle keyless clients (default 2s).
	MinRequestInterval time.Duration `json:"min_request_interval" yaml:"min_request_interval"`

	// MaxRetries bounds the rate-limit backoff loop per request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CacheConfig holds settings for the optional SQLite result cache.
type CacheConfig struct {
	// Enabled turns the cache on. Results are never persisted otherwise.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file (default "cache/results.db").
	Path string `json:"path" yaml:"path"`

	// TTL is how long cached results stay valid (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// AIConfig holds settings for the LLM collaborator.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the chat-completions endpoint base. Any OpenAI-compatible
	// server works (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates against the LLM API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps generation length per call (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the sampling temperature (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts on rate limits (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call HTTP timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ExecutionConfig bounds the planner's resource use and failure tolerance.
type ExecutionConfig struct {
	// BatchSize caps how many dependency-free steps enter one batch (default 3).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxParallelTasks bounds the worker pool within a batch (default 3).
	MaxParallelTasks int `json:"max_parallel_tasks" yaml:"max_parallel_tasks"`

	// FailureThreshold is the batch failure rate (0-1) above which the plan
	// aborts (default 0.3).
	FailureThreshold float64 `json:"failure_threshold" yaml:"failure_threshold"`

	// TimeoutPerBatch is the per-step execution timeout applied when a step
	// carries none of its own (default 300s).
	TimeoutPerBatch time.Duration `json:"timeout_per_batch" yaml:"timeout_per_batch"`
}

// BrowserConfig holds settings for the headless-browser fetch tool.
type BrowserConfig struct {
	// Timeout bounds one render, navigation included (default 45s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxChars truncates extracted article text (default 20000).
	MaxChars int `json:"max_chars" yaml:"max_chars"`
}

// ToolsConfig configures capability routing.
type ToolsConfig struct {
	// MappingPath points at a YAML file overriding the default
	// capability-to-tool mapping table. Empty keeps the built-in routes.
	MappingPath string `json:"mapping_path,omitempty" yaml:"mapping_path,omitempty"`
}

// GenerationConfig holds settings for report assembly.
type GenerationConfig struct {
	// OutputDir is the directory for generated reports (default "output/reports").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxSections caps the outline length (default 5).
	MaxSections int `json:"max_sections" yaml:"max_sections"`
}

// PipelineConfig groups all stage configurations. It is constructed once at
// process start and injected into the manager, registry and planner; nothing
// reads configuration ambiently.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Execution  ExecutionConfig  `json:"execution" yaml:"execution"`
	Tools      ToolsConfig      `json:"tools" yaml:"tools"`
	Browser    BrowserConfig    `json:"browser" yaml:"browser"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
}

// Defaults returns a PipelineConfig with every knob at its documented default.
func Defaults() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{
			HTTPConfig:         HTTPConfig{Timeout: 30 * time.Second, UserAgent: "deepresearch/0.1"},
			MaxResults:         10,
			DefaultEngine:      "tavily",
			FallbackEngines:    []string{"duckduckgo", "brave", "arxiv"},
			Strategy:           StrategyPriority,
			EnableDuckDuckGo:   true,
			EnableArxiv:        true,
			IncludeAnswer:      true,
			MinRequestInterval: 2 * time.Second,
			MaxRetries:         3,
		},
		Cache: CacheConfig{Path: "cache/results.db", TTL: 24 * time.Hour},
		AI: AIConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			MaxTokens:   2048,
			Temperature: 0.3,
			MaxRetries:  3,
			Timeout:     120 * time.Second,
		},
		Execution: ExecutionConfig{
			BatchSize:        3,
			MaxParallelTasks: 3,
			FailureThreshold: 0.3,
			TimeoutPerBatch:  300 * time.Second,
		},
		Browser:    BrowserConfig{Timeout: 45 * time.Second, MaxChars: 20000},
		Generation: GenerationConfig{OutputDir: "output/reports", MaxSections: 5},
	}
}
