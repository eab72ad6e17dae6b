// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package urlutil

import "testing"

func TestDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https with path", "https://arxiv.org/abs/1234.5678", "arxiv.org"},
		{"strips www", "https://www.nature.com/articles/x", "nature.com"},
		{"http scheme", "http://export.arxiv.org/api/query", "export.arxiv.org"},
		{"with port", "https://localhost:8080/page", "localhost"},
		{"scheme-less", "arxiv.org/abs/1234", "arxiv.org"},
		{"uppercase host", "https://WWW.Example.COM/a", "example.com"},
		{"empty", "", "unknown"},
		{"whitespace", "   ", "unknown"},
		{"garbage", "::::", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Domain(tt.url); got != tt.want {
				t.Errorf("Domain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

// Domain must never echo an engine name; adapters rely on this to keep the
// source field honest.
func TestDomainNeverEngineName(t *testing.T) {
	got := Domain("https://api.tavily.com/search")
	if got == "tavily" {
		t.Fatalf("Domain returned bare engine name %q", got)
	}
	if got != "api.tavily.com" {
		t.Errorf("Domain = %q, want api.tavily.com", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"trailing slash", "https://example.com/page/", "https://example.com/page"},
		{"query order", "https://example.com/p?b=2&a=1", "https://example.com/p?a=1&b=2"},
		{"host case", "https://EXAMPLE.com/p", "https://example.com/p"},
		{"both", "https://www.example.com/p/?z=9&a=1", "https://www.example.com/p?a=1&z=9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Normalize(tt.a) != Normalize(tt.b) {
				t.Errorf("Normalize(%q)=%q != Normalize(%q)=%q", tt.a, Normalize(tt.a), tt.b, Normalize(tt.b))
			}
		})
	}
}

func TestNormalizeDistinct(t *testing.T) {
	if Normalize("https://example.com/a") == Normalize("https://example.com/b") {
		t.Error("distinct paths normalized equal")
	}
	if Normalize("https://example.com/p?a=1") == Normalize("https://example.com/p?a=2") {
		t.Error("distinct query values normalized equal")
	}
}
