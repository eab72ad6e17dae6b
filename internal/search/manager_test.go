// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name      string
	results   []types.SearchResult
	err       error
	available bool
	calls     int
}

func (m *mockProvider) Name() string                       { return m.name }
func (m *mockProvider) Available(_ context.Context) bool   { return m.available }
func (m *mockProvider) Search(_ context.Context, _ string, _ int) ([]types.SearchResult, error) {
	m.calls++
	return m.results, m.err
}

func hit(url string) types.SearchResult {
	return types.SearchResult{Title: url, URL: url, Source: "example.com"}
}

func testSearchCfg() types.SearchConfig {
	cfg := types.Defaults().Search
	cfg.FallbackEngines = nil
	cfg.DefaultEngine = ""
	return cfg
}

// --- Deduplicate ---

func TestDeduplicateNormalizedURLs(t *testing.T) {
	results := []types.SearchResult{
		{Title: "A", URL: "https://example.com/page/"},
		{Title: "B", URL: "https://example.com/page"},
		{Title: "C", URL: "https://example.com/p?b=2&a=1"},
		{Title: "D", URL: "https://example.com/p?a=1&b=2"},
		{Title: "E", URL: "https://example.com/other"},
	}

	deduped, removed := Deduplicate(results)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if len(deduped) != 3 {
		t.Fatalf("len(deduped) = %d, want 3", len(deduped))
	}
	// First occurrence wins: "A" survives, "B" does not.
	if deduped[0].Title != "A" {
		t.Errorf("deduped[0].Title = %q, want A", deduped[0].Title)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	results := []types.SearchResult{
		{URL: "https://example.com/a/"},
		{URL: "https://example.com/a"},
		{URL: "https://example.com/b"},
		{Source: "tavily_answer", Snippet: "the answer"},
	}

	once, _ := Deduplicate(results)
	twice, removed := Deduplicate(once)
	if removed != 0 {
		t.Errorf("second pass removed %d, want 0", removed)
	}
	if len(once) != len(twice) {
		t.Errorf("dedup not idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestDeduplicateKeepsAnswerEntries(t *testing.T) {
	results := []types.SearchResult{
		{Source: "tavily_answer", Snippet: "answer text"},
		{URL: "https://example.com/a"},
	}
	deduped, removed := Deduplicate(results)
	if removed != 0 || len(deduped) != 2 {
		t.Errorf("deduped = %d (removed %d), want 2 (0)", len(deduped), removed)
	}
}

// --- fallback chain ---

func TestSearchFallbackToNextEngine(t *testing.T) {
	cfg := testSearchCfg()
	cfg.FallbackEngines = []string{"b"}
	m := NewManager(cfg, io.Discard)

	a := &mockProvider{name: "a", available: false}
	b := &mockProvider{name: "b", available: true, results: []types.SearchResult{hit("https://example.com/1"), hit("https://example.com/2")}}
	m.Register("a", a, 10, true)
	m.Register("b", b, 5, true)

	results, err := m.Search(context.Background(), "query", Options{Engine: "a"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2 from fallback engine", len(results))
	}
	if a.calls != 0 {
		t.Errorf("unavailable engine was searched %d times", a.calls)
	}
	if b.calls != 1 {
		t.Errorf("fallback engine calls = %d, want 1", b.calls)
	}
}

func TestSearchDisabledEngineFallsBack(t *testing.T) {
	cfg := testSearchCfg()
	cfg.FallbackEngines = []string{"b"}
	m := NewManager(cfg, io.Discard)

	m.Register("a", &mockProvider{name: "a", available: true, results: []types.SearchResult{hit("https://a.example.com/x")}}, 10, false)
	m.Register("b", &mockProvider{name: "b", available: true, results: []types.SearchResult{hit("https://b.example.com/y")}}, 5, true)

	results, err := m.Search(context.Background(), "query", Options{Engine: "a"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].URL != "https://b.example.com/y" {
		t.Errorf("got %q, want result from enabled fallback", results[0].URL)
	}
}

func TestSearchAllEnginesExhausted(t *testing.T) {
	m := NewManager(testSearchCfg(), io.Discard)
	m.Register("a", &mockProvider{name: "a", available: true, err: fmt.Errorf("boom")}, 10, true)
	m.Register("b", &mockProvider{name: "b", available: true}, 5, true)

	_, err := m.Search(context.Background(), "query", Options{})
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	m := NewManager(testSearchCfg(), io.Discard)
	if _, err := m.Search(context.Background(), "   ", Options{}); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestSearchNoFallback(t *testing.T) {
	cfg := testSearchCfg()
	cfg.FallbackEngines = []string{"b"}
	m := NewManager(cfg, io.Discard)

	b := &mockProvider{name: "b", available: true, results: []types.SearchResult{hit("https://example.com/1")}}
	m.Register("a", &mockProvider{name: "a", available: true, err: fmt.Errorf("down")}, 10, true)
	m.Register("b", b, 5, true)

	_, err := m.Search(context.Background(), "query", Options{Engine: "a", NoFallback: true})
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults with fallback disabled", err)
	}
	if b.calls != 0 {
		t.Errorf("fallback engine was called %d times with NoFallback", b.calls)
	}
}

// --- multi-engine ---

func TestSearchMultipleEnginesIsolation(t *testing.T) {
	m := NewManager(testSearchCfg(), io.Discard)
	m.Register("ok1", &mockProvider{name: "ok1", available: true, results: []types.SearchResult{hit("https://one.example.com/")}}, 3, true)
	m.Register("bad", &mockProvider{name: "bad", available: true, err: fmt.Errorf("exploded")}, 2, true)
	m.Register("ok2", &mockProvider{name: "ok2", available: true, results: []types.SearchResult{hit("https://two.example.com/")}}, 1, true)

	out := m.SearchMultipleEngines(context.Background(), "query", []string{"ok1", "bad", "ok2"}, 5)

	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3 keys", len(out))
	}
	if got, ok := out["bad"]; !ok {
		t.Fatal("failing engine missing from result map")
	} else if len(got) != 0 {
		t.Errorf("failing engine entry = %d results, want empty list", len(got))
	}
	if len(out["ok1"]) != 1 || len(out["ok2"]) != 1 {
		t.Errorf("healthy engines lost results: ok1=%d ok2=%d", len(out["ok1"]), len(out["ok2"]))
	}
}

func TestSearchMultipleEnginesNoCrossDedup(t *testing.T) {
	shared := hit("https://shared.example.com/page")
	m := NewManager(testSearchCfg(), io.Discard)
	m.Register("a", &mockProvider{name: "a", available: true, results: []types.SearchResult{shared}}, 2, true)
	m.Register("b", &mockProvider{name: "b", available: true, results: []types.SearchResult{shared}}, 1, true)

	out := m.SearchMultipleEngines(context.Background(), "query", []string{"a", "b"}, 5)
	if len(out["a"]) != 1 || len(out["b"]) != 1 {
		t.Error("comparison path must not deduplicate across engines")
	}
}

// --- selection strategies ---

func TestEngineOrderPriority(t *testing.T) {
	cfg := testSearchCfg()
	cfg.Strategy = types.StrategyPriority
	m := NewManager(cfg, io.Discard)
	m.Register("low", &mockProvider{name: "low", available: true}, 1, true)
	m.Register("high", &mockProvider{name: "high", available: true}, 9, true)
	m.Register("mid", &mockProvider{name: "mid", available: true}, 5, true)

	order := m.engineOrder("")
	want := []string{"high", "mid", "low"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEngineOrderRoundRobinRotates(t *testing.T) {
	cfg := testSearchCfg()
	cfg.Strategy = types.StrategyRoundRobin
	m := NewManager(cfg, io.Discard)
	m.Register("a", &mockProvider{name: "a", available: true}, 2, true)
	m.Register("b", &mockProvider{name: "b", available: true}, 1, true)

	first := m.engineOrder("")[0]
	second := m.engineOrder("")[0]
	third := m.engineOrder("")[0]

	if first == second {
		t.Errorf("round robin did not rotate: %q then %q", first, second)
	}
	if first != third {
		t.Errorf("round robin did not wrap: %q vs %q", first, third)
	}
}

func TestEngineOrderExplicitFirst(t *testing.T) {
	cfg := testSearchCfg()
	cfg.FallbackEngines = []string{"a", "b"}
	m := NewManager(cfg, io.Discard)
	m.Register("a", &mockProvider{name: "a", available: true}, 9, true)
	m.Register("b", &mockProvider{name: "b", available: true}, 1, true)

	order := m.engineOrder("b")
	if order[0] != "b" {
		t.Errorf("order = %v, explicit engine must come first", order)
	}
}

// --- availability ---

func TestAvailableEngines(t *testing.T) {
	m := NewManager(testSearchCfg(), io.Discard)
	m.Register("up", &mockProvider{name: "up", available: true}, 3, true)
	m.Register("nokey", &mockProvider{name: "nokey", available: false}, 2, true)
	m.Register("off", &mockProvider{name: "off", available: true}, 1, false)

	got := m.AvailableEngines(context.Background())
	if len(got) != 1 || got[0] != "up" {
		t.Errorf("AvailableEngines() = %v, want [up]", got)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	m := NewManager(testSearchCfg(), io.Discard)
	old := &mockProvider{name: "e", available: true, err: fmt.Errorf("old")}
	m.Register("e", old, 1, true)
	m.Register("e", &mockProvider{name: "e", available: true, results: []types.SearchResult{hit("https://example.com/new")}}, 1, true)

	results, err := m.Search(context.Background(), "query", Options{Engine: "e"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].URL != "https://example.com/new" {
		t.Error("re-registration did not overwrite the provider")
	}
	if old.calls != 0 {
		t.Error("overwritten provider still receives calls")
	}
}

// --- cache wiring ---

type fakeCache struct {
	store map[string][]types.SearchResult
	puts  int
}

func (c *fakeCache) Get(_ context.Context, engine, query string) ([]types.SearchResult, bool, error) {
	r, ok := c.store[engine+"|"+query]
	return r, ok, nil
}

func (c *fakeCache) Put(_ context.Context, engine, query string, results []types.SearchResult) error {
	c.store[engine+"|"+query] = results
	c.puts++
	return nil
}

func TestSearchConsultsCache(t *testing.T) {
	m := NewManager(testSearchCfg(), io.Discard)
	p := &mockProvider{name: "e", available: true, results: []types.SearchResult{hit("https://example.com/x")}}
	m.Register("e", p, 1, true)

	c := &fakeCache{store: map[string][]types.SearchResult{}}
	m.SetCache(c)

	if _, err := m.Search(context.Background(), "q", Options{Engine: "e"}); err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	if _, err := m.Search(context.Background(), "q", Options{Engine: "e"}); err != nil {
		t.Fatalf("second Search() error = %v", err)
	}

	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second served from cache)", p.calls)
	}
	if c.puts != 1 {
		t.Errorf("cache puts = %d, want 1", c.puts)
	}
}
