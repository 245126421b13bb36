// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

// topicsFile is the YAML shape of an external topics file.
type topicsFile struct {
	Topics []string `yaml:"topics"`
}

// loadTopics returns the seed topics for depth 0: the literal config list
// followed by the contents of the topics file, if one is named. Blank entries
// and duplicates are dropped, first occurrence wins.
func loadTopics(cfg types.DiscoveryConfig) ([]string, error) {
	topics := append([]string(nil), cfg.Topics...)

	if cfg.TopicsFile != "" {
		data, err := os.ReadFile(cfg.TopicsFile)
		if err != nil {
			return nil, fmt.Errorf("reading topics file: %w", err)
		}
		var tf topicsFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("parsing topics file %s: %w", cfg.TopicsFile, err)
		}
		topics = append(topics, tf.Topics...)
	}

	var (
		out  []string
		seen = map[string]bool{}
	)
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		key := strings.ToLower(topic)
		if topic == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, topic)
	}
	return out, nil
}
