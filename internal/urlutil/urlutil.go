// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urlutil extracts source domains and normalizes URLs for
// deduplication. Every search provider routes its Source assignment through
// Domain; none hand-rolls its own, so a provider name can never leak into a
// result's source field.
package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// unknownDomain is returned when no host can be extracted.
const unknownDomain = "unknown"

// Domain returns the registrable domain of rawURL for display as a result
// source: scheme stripped, leading "www." stripped, host only. Unparsable or
// empty input yields "unknown".
func Domain(rawURL string) string {
	if strings.TrimSpace(rawURL) == "" {
		return unknownDomain
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return unknownDomain
	}

	host := u.Hostname()
	if host == "" {
		// Tolerate scheme-less input like "arxiv.org/abs/1234".
		if u2, err2 := url.Parse("https://" + rawURL); err2 == nil {
			host = u2.Hostname()
		}
	}
	if host == "" {
		return unknownDomain
	}

	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return unknownDomain
	}
	return host
}

// Normalize returns a canonical form of rawURL for duplicate detection:
// lowercased scheme and host, trailing slash stripped from the path, query
// parameters sorted by key, fragment dropped. Two URLs that differ only by
// trailing slash or query-string order normalize equal.
func Normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.Path, "/")

	query := ""
	if u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			var parts []string
			for _, k := range keys {
				vs := values[k]
				sort.Strings(vs)
				for _, v := range vs {
					parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
				}
			}
			query = "?" + strings.Join(parts, "&")
		} else {
			query = "?" + u.RawQuery
		}
	}

	return scheme + "://" + host + path + query
}
