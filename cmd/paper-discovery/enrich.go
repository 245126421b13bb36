// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-discovery/internal/enrich"
	"github.com/pdiddy/paper-discovery/internal/scholar"
	"github.com/pdiddy/paper-discovery/internal/store"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Backfill metadata for placeholder papers",
	Long: `Enrich looks up full metadata for papers the store only knows as placeholder
rows: papers reached through reference/citation edges, or results that came
back without abstracts. Fetched fields merge into the stored rows without
overwriting anything already known.`,
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	e := &enrich.Enricher{
		Store:   s,
		Fetcher: scholar.New(cfg.Scholar),
		Limit:   limit,
	}

	_, err = e.Run(cmd.Context(), os.Stdout)
	return err
}

func init() {
	enrichCmd.Flags().Int("limit", 0, "maximum papers to enrich in one pass (0 = all)")

	rootCmd.AddCommand(enrichCmd)
}
