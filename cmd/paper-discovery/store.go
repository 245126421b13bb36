// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect or reset the discovery database",
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts per table and per paper state",
	RunE:  runStoreStats,
}

func runStoreStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	st, err := s.CountStats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "papers:        %d\n", st.Papers)
	for _, state := range []types.PaperState{
		types.StateDiscovered, types.StateEvaluated, types.StateAccepted, types.StateRejected,
	} {
		papers, err := s.PapersByState(ctx, state)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "  %-12s %d\n", string(state)+":", len(papers))
	}
	fmt.Fprintf(os.Stdout, "search logs:   %d\n", st.SearchLogs)
	fmt.Fprintf(os.Stdout, "query sources: %d\n", st.QuerySources)
	fmt.Fprintf(os.Stdout, "references:    %d\n", st.References)
	fmt.Fprintf(os.Stdout, "citations:     %d\n", st.Citations)
	fmt.Fprintf(os.Stdout, "concepts:      %d\n", st.Concepts)
	fmt.Fprintf(os.Stdout, "evaluations:   %d\n", st.Evaluations)
	return nil
}

var storeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all rows from every table",
	Long: `Reset empties the discovery database. This is the only operation that
deletes history; it requires --force.`,
	RunE: runStoreReset,
}

func runStoreReset(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("refusing to delete all data without --force")
	}

	cfg := loadConfig(cmd)
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "store reset")
	return nil
}

func init() {
	storeResetCmd.Flags().Bool("force", false, "confirm deletion of all stored data")

	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeResetCmd)
	rootCmd.AddCommand(storeCmd)
}
