// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-discovery/internal/discovery"
	"github.com/pdiddy/paper-discovery/internal/llm"
	"github.com/pdiddy/paper-discovery/internal/scholar"
	"github.com/pdiddy/paper-discovery/internal/store"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run the iterative paper discovery engine",
	Long: `Discover expands seed topics into a bounded exploration of the paper graph.
Each depth level generates search queries per seed, issues them against
Semantic Scholar, relevance-filters the results, and uses concepts extracted
from accepted papers as the next level's seeds.

Interrupting the run (Ctrl-C) is safe: in-flight queries commit their results
and the run stops dispatching new ones.`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	if topics, _ := cmd.Flags().GetStringSlice("topic"); len(topics) > 0 {
		cfg.Discovery.Topics = topics
	}
	if f, _ := cmd.Flags().GetString("topics-file"); f != "" {
		cfg.Discovery.TopicsFile = f
	}
	if goal, _ := cmd.Flags().GetString("goal"); goal != "" {
		cfg.Discovery.Goal = goal
	}
	if cmd.Flags().Changed("max-depth") {
		cfg.Discovery.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	}
	if cmd.Flags().Changed("breadth") {
		cfg.Discovery.Breadth, _ = cmd.Flags().GetInt("breadth")
	}
	if cmd.Flags().Changed("max-papers") {
		cfg.Discovery.MaxPapers, _ = cmd.Flags().GetInt("max-papers")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Discovery.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}

	assistant, err := llm.New(cfg.AI)
	if err != nil {
		return err
	}
	search := scholar.New(cfg.Scholar)

	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	checkOnly, _ := cmd.Flags().GetBool("check-only")
	if checkOnly {
		return runCheck(cmd.Context(), s, assistant, search)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := &discovery.Engine{
		Store:     s,
		Search:    search,
		Assistant: assistant,
		Config:    cfg.Discovery,
	}
	summary, err := engine.Run(ctx, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Reason == discovery.ReasonCancelled {
		fmt.Fprintln(os.Stderr, "run interrupted; committed results were kept")
	}
	return nil
}

// runCheck validates collaborator connectivity without running expansion.
func runCheck(ctx context.Context, s *store.Store, assistant *llm.Client, search *scholar.Client) error {
	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{"store", s.Ping},
		{"openai", assistant.Ping},
		{"semantic scholar", search.Ping},
	}

	failed := 0
	for _, c := range checks {
		if err := c.ping(ctx); err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "%-16s FAIL  %v\n", c.name, err)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-16s OK\n", c.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d collaborator check(s) failed", failed)
	}
	return nil
}

func init() {
	discoverCmd.Flags().StringSlice("topic", nil, "seed topic (repeatable)")
	discoverCmd.Flags().String("topics-file", "", "YAML file with additional seed topics")
	discoverCmd.Flags().String("goal", "", "research goal description for the relevance filter")
	discoverCmd.Flags().Int("max-depth", 2, "maximum expansion depth")
	discoverCmd.Flags().Int("breadth", 3, "queries generated per seed per level")
	discoverCmd.Flags().Int("max-papers", 500, "overall cap on stored paper rows")
	discoverCmd.Flags().Int("concurrency", 4, "queries processed in parallel within a level")
	discoverCmd.Flags().Bool("check-only", false, "validate collaborator connectivity and exit")

	rootCmd.AddCommand(discoverCmd)
}
