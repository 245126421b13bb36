// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-discovery/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for components that call the OpenAI API.
type AIConfig struct {
	// Model is the chat model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the OpenAI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScholarConfig holds settings for the Semantic Scholar client.
type ScholarConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional Semantic Scholar API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the page size requested per search (1-100, default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestDelay is the minimum delay between consecutive API calls
	// (default 600ms, i.e. under the anonymous 100 req/min limit).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// DiscoveryConfig holds the run parameters for the frontier expansion engine.
type DiscoveryConfig struct {
	// Topics is the ordered list of seed topics for depth 0.
	Topics []string `json:"topics" yaml:"topics"`

	// TopicsFile optionally names a YAML file with additional seed topics.
	TopicsFile string `json:"topics_file,omitempty" yaml:"topics_file,omitempty"`

	// Goal is the research goal description given to the relevance filter.
	Goal string `json:"goal" yaml:"goal"`

	// MaxDepth bounds the number of expansion levels. Concepts extracted at
	// the final level are stored but not expanded.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Breadth is the maximum number of queries generated per seed per level.
	Breadth int `json:"breadth" yaml:"breadth"`

	// MaxPapers caps the total number of stored paper rows. When reached,
	// the run stops issuing searches and terminates gracefully.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// Concurrency is the number of queries processed in parallel within a
	// depth level (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// StoreConfig holds settings for the paper record store.
type StoreConfig struct {
	// Path is the SQLite database file (default "discovery.db").
	Path string `json:"path" yaml:"path"`
}

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	// OutputDir is the base directory for export files; each export run
	// writes into a timestamped subdirectory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// SupportThreshold is the minimum latest support level (0-10) for a
	// paper to appear in the papers export. Applied here, not by the
	// evaluator.
	SupportThreshold float64 `json:"support_threshold" yaml:"support_threshold"`

	// Format selects the export format: csv or json.
	Format string `json:"format" yaml:"format"`
}

// Config groups all component configurations.
type Config struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Scholar   ScholarConfig   `json:"scholar" yaml:"scholar"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Export    ExportConfig    `json:"export" yaml:"export"`
}
