// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-discovery/internal/evaluate"
	"github.com/pdiddy/paper-discovery/internal/llm"
	"github.com/pdiddy/paper-discovery/internal/store"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score stored papers against the research question",
	Long: `Evaluate asks the language model how strongly each stored paper supports the
research question, on a 0-10 scale, and appends an evaluation row per paper.
Rerunning appends fresh rows; export always uses the latest. The support
threshold is applied at export time, not here.`,
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	question, _ := cmd.Flags().GetString("question")
	if question == "" {
		question = cfg.Discovery.Goal
	}
	if question == "" {
		return fmt.Errorf("research question required: set --question or discovery.goal")
	}

	assistant, err := llm.New(cfg.AI)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	acceptedOnly, _ := cmd.Flags().GetBool("accepted-only")
	ev := &evaluate.Evaluator{
		Store:        s,
		Scorer:       assistant,
		Question:     question,
		AcceptedOnly: acceptedOnly,
	}

	stats, err := ev.Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if stats.Failed > 0 && stats.Scored == 0 {
		return fmt.Errorf("all %d evaluations failed", stats.Failed)
	}
	return nil
}

func init() {
	evaluateCmd.Flags().String("question", "", "research question (default: discovery.goal from config)")
	evaluateCmd.Flags().Bool("accepted-only", false, "score only papers in the accepted state")

	rootCmd.AddCommand(evaluateCmd)
}
