// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-discovery CLI.
//
// The pipeline stages are subcommands: discover runs the frontier expansion
// engine, evaluate scores stored papers against the research question, enrich
// backfills placeholder metadata, export writes CSV/JSON reports, and store
// inspects or resets the database.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-discovery/internal/secrets"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, else the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-discovery CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-discovery",
	Short: "Iterative academic paper discovery driven by a language model",
	Long: `paper-discovery explores the academic literature outward from seed topics:
a language model generates search queries, Semantic Scholar returns candidate
papers, a relevance filter keeps the on-topic ones, and concepts extracted
from accepted papers seed the next round, bounded by depth, breadth, and an
overall paper cap. Everything discovered is persisted in SQLite with full
provenance for later evaluation and export.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-discovery.yaml or ~/.config/paper-discovery/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: discovery.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-discovery")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-discovery"))
		}
	}

	viper.SetDefault("store.path", "discovery.db")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("scholar.max_results", 100)
	viper.SetDefault("scholar.request_delay", 600*time.Millisecond)
	viper.SetDefault("scholar.timeout", 30*time.Second)
	viper.SetDefault("scholar.user_agent", "paper-discovery/"+version)
	viper.SetDefault("discovery.max_depth", 2)
	viper.SetDefault("discovery.breadth", 3)
	viper.SetDefault("discovery.max_papers", 500)
	viper.SetDefault("discovery.concurrency", 4)
	viper.SetDefault("export.output_dir", "output")
	viper.SetDefault("export.support_threshold", 5)
	viper.SetDefault("export.format", "csv")

	viper.SetEnvPrefix("PAPER_DISCOVERY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the full configuration from viper (config file plus
// environment) and the loaded secrets. Command flags refine it afterwards.
func loadConfig(cmd *cobra.Command) types.Config {
	cfg := types.Config{
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     secretDefault("openai-api-key", viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Scholar: types.ScholarConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("scholar.timeout"),
				UserAgent: viper.GetString("scholar.user_agent"),
			},
			APIKey:       secretDefault("semantic-scholar-api-key", viper.GetString("scholar.api_key")),
			MaxResults:   viper.GetInt("scholar.max_results"),
			RequestDelay: viper.GetDuration("scholar.request_delay"),
		},
		Discovery: types.DiscoveryConfig{
			Topics:      viper.GetStringSlice("discovery.topics"),
			TopicsFile:  viper.GetString("discovery.topics_file"),
			Goal:        viper.GetString("discovery.goal"),
			MaxDepth:    viper.GetInt("discovery.max_depth"),
			Breadth:     viper.GetInt("discovery.breadth"),
			MaxPapers:   viper.GetInt("discovery.max_papers"),
			Concurrency: viper.GetInt("discovery.concurrency"),
		},
		Export: types.ExportConfig{
			OutputDir:        viper.GetString("export.output_dir"),
			SupportThreshold: viper.GetFloat64("export.support_threshold"),
			Format:           viper.GetString("export.format"),
		},
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
