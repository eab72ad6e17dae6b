// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one query through the retrieval layer",
	Long: `Search runs a query against the configured engines. By default the
selected engine is tried first and the fallback chain covers failures;
--multi queries several engines side by side instead, without merging,
for comparing their coverage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	engine, _ := cmd.Flags().GetString("engine")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	noFallback, _ := cmd.Flags().GetBool("no-fallback")
	multi, _ := cmd.Flags().GetBool("multi")
	engines, _ := cmd.Flags().GetStringSlice("engines")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := pipelineConfig()
	m, closer, err := buildManager(cfg, os.Stderr)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if multi {
		byEngine := m.SearchMultipleEngines(ctx, query, engines, maxResults)
		if jsonOutput {
			return search.FormatJSONByEngine(byEngine, os.Stdout)
		}
		search.FormatComparison(byEngine, os.Stdout)
		return nil
	}

	results, err := m.Search(ctx, query, search.Options{
		Engine:     engine,
		MaxResults: maxResults,
		NoFallback: noFallback,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return search.FormatJSON(results, os.Stdout)
	}
	search.FormatTable(results, os.Stdout)
	return nil
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List configured search engines and their availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		m, closer, err := buildManager(cfg, os.Stderr)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		available := make(map[string]bool)
		for _, name := range m.AvailableEngines(ctx) {
			available[name] = true
		}

		fmt.Fprintf(os.Stdout, "%-14s  %s\n", "Engine", "Status")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 30))
		for _, name := range m.Engines() {
			status := "unavailable (missing key?)"
			if available[name] {
				status = "available"
			}
			fmt.Fprintf(os.Stdout, "%-14s  %s\n", name, status)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("engine", "", "engine to query first (default: configured strategy)")
	searchCmd.Flags().Int("max-results", 0, "maximum results (0 = configured default)")
	searchCmd.Flags().Bool("no-fallback", false, "fail instead of falling back to other engines")
	searchCmd.Flags().Bool("multi", false, "query several engines side by side")
	searchCmd.Flags().StringSlice("engines", nil, "engines for --multi (default: all available)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(enginesCmd)
}
