// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/deepresearch/internal/urlutil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// ErrNoResults reports that every engine in the fallback chain failed or
// returned nothing. The planner converts it into a failed step; it is never
// swallowed.
var ErrNoResults = errors.New("all search engines failed or returned no results")

// ResultCache stores results per (engine, query) between runs. The cache
// package provides the SQLite implementation; the Manager only needs this
// surface.
type ResultCache interface {
	Get(ctx context.Context, engine, query string) ([]types.SearchResult, bool, error)
	Put(ctx context.Context, engine, query string, results []types.SearchResult) error
}

// Options direct a single Manager.Search call.
type Options struct {
	// Engine names the provider to query. Empty means "apply the
	// configured selection strategy".
	Engine string

	// MaxResults overrides the configured default when positive.
	MaxResults int

	// NoFallback disables the fallback chain; only the first engine in
	// the computed order is tried.
	NoFallback bool
}

// registration is one provider registry entry.
type registration struct {
	provider Provider
	priority int
	enabled  bool
}

// Manager is the single entry point for retrieval. It owns the provider
// registry, applies the selection strategy and the fallback chain, and
// deduplicates single-engine results. The registry is mutated only at
// configuration time; during a run it is effectively read-only, while the
// rotation state for round-robin selection is mutex-guarded.
type Manager struct {
	mu        sync.Mutex
	providers map[string]*registration
	rotation  int
	rng       *rand.Rand

	cfg   types.SearchConfig
	cache ResultCache
	out   io.Writer
}

// NewManager builds an empty Manager. Providers are registered afterwards;
// re-registering a name overwrites the prior entry so engines can be
// re-configured without errors.
func NewManager(cfg types.SearchConfig, out io.Writer) *Manager {
	if out == nil {
		out = io.Discard
	}
	return &Manager{
		providers: make(map[string]*registration),
		rng:       rand.New(rand.NewSource(1)),
		cfg:       cfg,
		out:       out,
	}
}

// Register adds or overwrites a provider entry.
func (m *Manager) Register(name string, p Provider, priority int, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = &registration{provider: p, priority: priority, enabled: enabled}
}

// SetEnabled flips a registered provider without replacing it. Unknown
// names are ignored.
func (m *Manager) SetEnabled(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reg, ok := m.providers[name]; ok {
		reg.enabled = enabled
	}
}

// SetCache attaches a result cache. A nil cache disables caching.
func (m *Manager) SetCache(c ResultCache) { m.cache = c }

// Seed reseeds the random selection strategy; useful for reproducible runs.
func (m *Manager) Seed(seed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = rand.New(rand.NewSource(seed))
}

// Engines returns all registered engine names, sorted.
func (m *Manager) Engines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableEngines returns engines that are enabled and whose required
// credentials are present. Diagnostics and capability resolution for search
// steps both use it.
func (m *Manager) AvailableEngines(ctx context.Context) []string {
	var available []string
	for _, name := range m.Engines() {
		m.mu.Lock()
		reg := m.providers[name]
		m.mu.Unlock()
		if reg.enabled && reg.provider.Available(ctx) {
			available = append(available, name)
		}
	}
	return available
}

// Search runs one query through the engine order computed from opts and the
// configured strategy, returning the first non-empty, deduplicated result
// set. A provider failure is logged and the chain moves on; only when the
// whole chain is exhausted does the caller see ErrNoResults.
func (m *Manager) Search(ctx context.Context, query string, opts Options) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = m.cfg.MaxResults
	}

	order := m.engineOrder(opts.Engine)
	if opts.NoFallback && len(order) > 1 {
		order = order[:1]
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no search engines registered")
	}

	for _, name := range order {
		results, err := m.searchOne(ctx, name, query, maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Fprintf(m.out, "warning: engine %s failed: %v\n", name, err)
			continue
		}
		if len(results) == 0 {
			fmt.Fprintf(m.out, "warning: engine %s returned no results\n", name)
			continue
		}

		deduped, removed := Deduplicate(results)
		if removed > 0 {
			fmt.Fprintf(m.out, "%s: %d duplicate result(s) collapsed\n", name, removed)
		}
		return deduped, nil
	}

	return nil, fmt.Errorf("%w: query %q, tried %v", ErrNoResults, query, order)
}

// SearchMultipleEngines runs the query on each named engine concurrently and
// returns a map keyed by engine name for side-by-side comparison. Failures
// are isolated per engine: a failing engine contributes an empty slice, never
// a missing key, and never aborts its siblings. Results are deliberately NOT
// deduplicated across engines; overlap is the point of comparing.
func (m *Manager) SearchMultipleEngines(ctx context.Context, query string, engines []string, maxResultsPerEngine int) map[string][]types.SearchResult {
	if len(engines) == 0 {
		engines = m.AvailableEngines(ctx)
	}

	type engineResult struct {
		name    string
		results []types.SearchResult
	}

	ch := make(chan engineResult, len(engines))
	var wg sync.WaitGroup

	for _, name := range engines {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			results, err := m.searchOne(ctx, name, strings.TrimSpace(query), maxResultsPerEngine)
			if err != nil {
				fmt.Fprintf(m.out, "warning: engine %s failed: %v\n", name, err)
				results = nil
			}
			if results == nil {
				results = []types.SearchResult{}
			}
			ch <- engineResult{name: name, results: results}
		}(name)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	out := make(map[string][]types.SearchResult, len(engines))
	for er := range ch {
		out[er.name] = er.results
	}
	return out
}

// searchOne queries exactly one engine, consulting the cache first. It does
// not fall back and does not deduplicate.
func (m *Manager) searchOne(ctx context.Context, name, query string, maxResults int) ([]types.SearchResult, error) {
	m.mu.Lock()
	reg, ok := m.providers[name]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("engine %q not registered", name)
	}
	if !reg.enabled {
		return nil, fmt.Errorf("engine %q disabled", name)
	}
	if !reg.provider.Available(ctx) {
		return nil, fmt.Errorf("engine %q unavailable (missing credentials?)", name)
	}

	if m.cache != nil {
		if cached, hit, err := m.cache.Get(ctx, name, query); err == nil && hit {
			return cached, nil
		}
	}

	results, err := reg.provider.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if m.cache != nil && len(results) > 0 {
		if err := m.cache.Put(ctx, name, query, results); err != nil {
			fmt.Fprintf(m.out, "warning: caching %s results: %v\n", name, err)
		}
	}
	return results, nil
}

// engineOrder computes the engines to try, in order. An explicit engine goes
// first, followed by the configured fallback chain and then any remaining
// enabled engines. Without an explicit engine the configured strategy picks
// the head of the order; the computation is deterministic given the
// manager's rotation and RNG state.
func (m *Manager) engineOrder(explicit string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var enabled []string
	for name, reg := range m.providers {
		if reg.enabled {
			enabled = append(enabled, name)
		}
	}
	// Deterministic base order: priority descending, then name.
	sort.Slice(enabled, func(i, j int) bool {
		pi, pj := m.providers[enabled[i]].priority, m.providers[enabled[j]].priority
		if pi != pj {
			return pi > pj
		}
		return enabled[i] < enabled[j]
	})

	var head []string
	switch {
	case explicit != "":
		head = []string{explicit}
	case m.cfg.Strategy == types.StrategyRoundRobin && len(enabled) > 0:
		head = []string{enabled[m.rotation%len(enabled)]}
		m.rotation++
	case m.cfg.Strategy == types.StrategyRandom && len(enabled) > 0:
		head = []string{enabled[m.rng.Intn(len(enabled))]}
	case m.cfg.DefaultEngine != "":
		head = []string{m.cfg.DefaultEngine}
	}

	order := make([]string, 0, len(enabled)+1)
	seen := make(map[string]bool)
	appendName := func(name string) {
		if name == "" || seen[name] {
			return
		}
		if _, ok := m.providers[name]; !ok && name != explicit {
			return
		}
		seen[name] = true
		order = append(order, name)
	}

	for _, name := range head {
		appendName(name)
	}
	for _, name := range m.cfg.FallbackEngines {
		appendName(name)
	}
	for _, name := range enabled {
		appendName(name)
	}
	return order
}

// Deduplicate collapses results whose URLs normalize equal (trailing slash
// and query-parameter order insensitive), keeping the first occurrence so
// provider-reported relevance order survives. URL-less entries (synthesized
// answers) are keyed by source and snippet instead. The operation is
// idempotent.
func Deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]bool, len(results))
	deduped := make([]types.SearchResult, 0, len(results))
	removed := 0

	for _, r := range results {
		key := urlutil.Normalize(r.URL)
		if r.URL == "" {
			key = "answer:" + r.Source + ":" + r.Snippet
		}
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}
	return deduped, removed
}
