// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-discovery/internal/export"
	"github.com/pdiddy/paper-discovery/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export discovery results to CSV or JSON",
	Long: `Export writes a timestamped directory with the papers whose latest support
level meets the threshold, the reference and citation edge lists, and the
search history.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	if cmd.Flags().Changed("support-threshold") {
		cfg.Export.SupportThreshold, _ = cmd.Flags().GetFloat64("support-threshold")
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		cfg.Export.Format = f
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Export.OutputDir = dir
	}

	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	e := &export.Exporter{Store: s, Config: cfg.Export}
	res, err := e.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "exported to %s: %d papers (support >= %.1f), %d references, %d citations, %d search logs\n",
		res.Dir, res.Papers, cfg.Export.SupportThreshold, res.References, res.Citations, res.SearchLogs)
	return nil
}

func init() {
	exportCmd.Flags().Float64("support-threshold", 5, "minimum latest support level for the papers file")
	exportCmd.Flags().String("format", "", "export format: csv or json (default csv)")
	exportCmd.Flags().String("output-dir", "", "base output directory (default output)")

	rootCmd.AddCommand(exportCmd)
}
