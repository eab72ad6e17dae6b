// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/outline"
	"github.com/pdiddy/deepresearch/internal/planner"
	"github.com/pdiddy/deepresearch/internal/report"
	"github.com/pdiddy/deepresearch/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run the full pipeline: outline, retrieve, synthesize, report",
	Long: `Research takes a topic and produces a cited Markdown report. The model
drafts an outline, each section gets a search step and a synthesis step,
and the executor runs them in dependency order with the configured
parallelism and failure tolerance. A run that crosses the failure
threshold, or is interrupted, still writes the sections it completed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	maxSections, _ := cmd.Flags().GetInt("max-sections")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	cfg := pipelineConfig()
	if maxSections > 0 {
		cfg.Generation.MaxSections = maxSections
	}
	if outputDir != "" {
		cfg.Generation.OutputDir = outputDir
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("no LLM API key: set %s or .secrets/openai-api-key", "OPENAI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m, closer, err := buildManager(cfg, os.Stderr)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	client := buildLLM(cfg.AI)
	registry, err := buildRegistry(cfg, m, client)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "generating outline for %q\n", topic)
	ol, err := outline.Generate(ctx, client, topic, cfg.Generation.MaxSections)
	if err != nil {
		return err
	}
	for i, s := range ol.Sections {
		fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s.Title)
	}

	plan := planner.BuildResearchPlan(topic, ol, cfg)
	exec := planner.NewExecutor(registry, cfg.Execution, os.Stderr)

	result, runErr := exec.Execute(ctx, plan)
	switch {
	case runErr == nil:
	case errors.Is(runErr, planner.ErrFailureThreshold):
		fmt.Fprintf(os.Stderr, "run aborted: %v; writing partial report\n", runErr)
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintln(os.Stderr, "run cancelled; writing partial report")
	default:
		return runErr
	}

	rep := assembleReport(topic, ol, result)
	path, err := report.WriteFile(rep, cfg.Generation.OutputDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "report written to %s\n", path)
	fmt.Fprintf(os.Stdout, "steps: %d succeeded, %d failed, %d skipped, %d cancelled (%s)\n",
		result.Succeeded, result.Failed, result.Skipped, result.Cancelled,
		result.Duration.Round(time.Millisecond))
	return nil
}

// assembleReport maps plan outputs back onto the outline: section i draws
// its content from step section-(i+1) and its citations from step
// search-(i+1). Sections whose steps did not succeed render degraded.
func assembleReport(topic string, ol types.Outline, result *planner.RunResult) types.Report {
	var sections []types.ReportSection
	for i, s := range ol.Sections {
		section := types.ReportSection{Title: s.Title}

		if out, ok := result.Outputs[fmt.Sprintf("section-%d", i+1)]; ok {
			if text, ok := out.Output.(string); ok {
				section.Content = text
			}
		}
		if out, ok := result.Outputs[fmt.Sprintf("search-%d", i+1)]; ok {
			if hits, ok := out.Output.([]types.SearchResult); ok {
				section.Citations = hits
			}
		}

		for _, n := range report.ValidateCitations(section) {
			fmt.Fprintf(os.Stderr, "warning: section %q cites [%d] with no matching reference\n", s.Title, n)
		}
		sections = append(sections, section)
	}

	summary := ""
	if out, ok := result.Outputs["report"]; ok {
		if text, ok := out.Output.(string); ok {
			summary = text
		}
	}

	return report.Assemble(topic, ol.Title, sections, summary)
}

func init() {
	researchCmd.Flags().Int("max-sections", 0, "cap the outline length (0 = configured default)")
	researchCmd.Flags().String("output-dir", "", "directory for the report file (default: configured)")

	rootCmd.AddCommand(researchCmd)
}
