// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/deepresearch/internal/cache"
	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/internal/search"
	"github.com/pdiddy/deepresearch/internal/secrets"
	"github.com/pdiddy/deepresearch/internal/tool"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// pipelineConfig assembles the full configuration: documented defaults,
// overridden by the config file and DEEPRESEARCH_* environment variables,
// with API keys resolved from env vars and the .secrets/ directory.
func pipelineConfig() types.PipelineConfig {
	cfg := types.Defaults()

	if viper.IsSet("search.max_results") {
		cfg.Search.MaxResults = viper.GetInt("search.max_results")
	}
	if viper.IsSet("search.default_engine") {
		cfg.Search.DefaultEngine = viper.GetString("search.default_engine")
	}
	if viper.IsSet("search.fallback_engines") {
		cfg.Search.FallbackEngines = viper.GetStringSlice("search.fallback_engines")
	}
	if viper.IsSet("search.strategy") {
		cfg.Search.Strategy = types.SelectionStrategy(viper.GetString("search.strategy"))
	}
	if viper.IsSet("search.enable_duckduckgo") {
		cfg.Search.EnableDuckDuckGo = viper.GetBool("search.enable_duckduckgo")
	}
	if viper.IsSet("search.enable_arxiv") {
		cfg.Search.EnableArxiv = viper.GetBool("search.enable_arxiv")
	}
	if viper.IsSet("search.include_answer") {
		cfg.Search.IncludeAnswer = viper.GetBool("search.include_answer")
	}
	if viper.IsSet("search.min_request_interval") {
		cfg.Search.MinRequestInterval = viper.GetDuration("search.min_request_interval")
	}
	if viper.IsSet("search.max_retries") {
		cfg.Search.MaxRetries = viper.GetInt("search.max_retries")
	}
	if viper.IsSet("search.timeout") {
		cfg.Search.Timeout = viper.GetDuration("search.timeout")
	}

	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.path") {
		cfg.Cache.Path = viper.GetString("cache.path")
	}
	if viper.IsSet("cache.ttl") {
		cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	}

	if viper.IsSet("ai.model") {
		cfg.AI.Model = viper.GetString("ai.model")
	}
	if viper.IsSet("ai.base_url") {
		cfg.AI.BaseURL = viper.GetString("ai.base_url")
	}
	if viper.IsSet("ai.max_tokens") {
		cfg.AI.MaxTokens = viper.GetInt("ai.max_tokens")
	}
	if viper.IsSet("ai.temperature") {
		cfg.AI.Temperature = viper.GetFloat64("ai.temperature")
	}
	if viper.IsSet("ai.timeout") {
		cfg.AI.Timeout = viper.GetDuration("ai.timeout")
	}

	if viper.IsSet("execution.batch_size") {
		cfg.Execution.BatchSize = viper.GetInt("execution.batch_size")
	}
	if viper.IsSet("execution.max_parallel_tasks") {
		cfg.Execution.MaxParallelTasks = viper.GetInt("execution.max_parallel_tasks")
	}
	if viper.IsSet("execution.failure_threshold") {
		cfg.Execution.FailureThreshold = viper.GetFloat64("execution.failure_threshold")
	}
	if viper.IsSet("execution.timeout_per_batch") {
		cfg.Execution.TimeoutPerBatch = viper.GetDuration("execution.timeout_per_batch")
	}

	if viper.IsSet("browser.timeout") {
		cfg.Browser.Timeout = viper.GetDuration("browser.timeout")
	}
	if viper.IsSet("tools.mapping_path") {
		cfg.Tools.MappingPath = viper.GetString("tools.mapping_path")
	}

	if viper.IsSet("browser.max_chars") {
		cfg.Browser.MaxChars = viper.GetInt("browser.max_chars")
	}

	if viper.IsSet("generation.output_dir") {
		cfg.Generation.OutputDir = viper.GetString("generation.output_dir")
	}
	if viper.IsSet("generation.max_sections") {
		cfg.Generation.MaxSections = viper.GetInt("generation.max_sections")
	}

	cfg.Search.TavilyAPIKey = secrets.Resolve(loadedSecrets, secrets.TavilyKeyFile, secrets.TavilyKeyEnv)
	cfg.Search.BraveAPIKey = secrets.Resolve(loadedSecrets, secrets.BraveKeyFile, secrets.BraveKeyEnv)
	cfg.AI.APIKey = secrets.Resolve(loadedSecrets, secrets.OpenAIKeyFile, secrets.OpenAIKeyEnv)

	return cfg
}

// buildManager constructs the search manager with every configured provider
// registered in fallback-chain priority and, when enabled, the SQLite result
// cache attached. The returned closer is non-nil when a cache is open.
func buildManager(cfg types.PipelineConfig, out io.Writer) (*search.Manager, io.Closer, error) {
	client := &http.Client{Timeout: cfg.Search.Timeout}
	m := search.NewManager(cfg.Search, out)

	m.Register("tavily", &search.TavilyProvider{
		Client:        client,
		APIKey:        cfg.Search.TavilyAPIKey,
		IncludeAnswer: cfg.Search.IncludeAnswer,
		MaxRetries:    cfg.Search.MaxRetries,
		UserAgent:     cfg.Search.UserAgent,
	}, 40, true)

	m.Register("duckduckgo", &search.DuckDuckGoProvider{
		Client:      client,
		MinInterval: cfg.Search.MinRequestInterval,
		MaxRetries:  cfg.Search.MaxRetries,
		UserAgent:   cfg.Search.UserAgent,
	}, 30, cfg.Search.EnableDuckDuckGo)

	m.Register("brave", &search.BraveProvider{
		Client:     client,
		APIKey:     cfg.Search.BraveAPIKey,
		MaxRetries: cfg.Search.MaxRetries,
		UserAgent:  cfg.Search.UserAgent,
	}, 20, true)

	m.Register("arxiv", &search.ArxivProvider{
		Client:    client,
		UserAgent: cfg.Search.UserAgent,
	}, 10, cfg.Search.EnableArxiv)

	if !cfg.Cache.Enabled {
		return m, nil, nil
	}
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("opening result cache: %w", err)
	}
	m.SetCache(store)
	return m, store, nil
}

// buildLLM constructs the chat-completions client from configuration.
func buildLLM(cfg types.AIConfig) *llm.OpenAIClient {
	return &llm.OpenAIClient{
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		MaxRetries:  cfg.MaxRetries,
	}
}

// buildRegistry constructs the tool registry. The capability mapping table
// comes from tools.mapping_path when configured, otherwise the built-in
// routes; either way the table is validated against the registered tools.
func buildRegistry(cfg types.PipelineConfig, m *search.Manager, client llm.Client) (*tool.Registry, error) {
	var mappings []tool.Mapping
	if cfg.Tools.MappingPath != "" {
		loaded, err := tool.LoadMappings(cfg.Tools.MappingPath)
		if err != nil {
			return nil, err
		}
		mappings = loaded
	}

	r := tool.NewRegistry(mappings)
	r.Register(&tool.SearchTool{Manager: m})
	r.Register(&tool.GenerateTool{Client: client})
	r.Register(&tool.FileTool{Root: mustGetwd()})
	r.Register(&tool.ScriptTool{Interpreter: "sh", Timeout: cfg.Execution.TimeoutPerBatch})
	r.Register(&tool.BrowserTool{
		Timeout:   cfg.Browser.Timeout,
		MaxChars:  cfg.Browser.MaxChars,
		UserAgent: cfg.Search.UserAgent,
	})

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("capability mappings: %w", err)
	}
	return r, nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
