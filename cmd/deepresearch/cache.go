// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the search result cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()

		store, err := cache.Open(cfg.Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.Prune(context.Background())
		if err != nil {
			return err
		}
		remaining, err := store.Len(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "pruned %d entries, %d remaining\n", removed, remaining)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
