// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"math"
	"strconv"
	"strings"
)

// parseQuotedLines extracts the quoted strings from a model response, one per
// line. Lines without surrounding double quotes are ignored, as are list
// markers the model sometimes adds. Duplicates within one response are
// dropped, first occurrence wins.
func parseQuotedLines(response string) []string {
	var (
		items []string
		seen  = map[string]bool{}
	)
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) || len(line) < 2 {
			continue
		}
		item := strings.TrimSpace(strings.Trim(line, `"-• `))
		if item == "" || seen[strings.ToLower(item)] {
			continue
		}
		seen[strings.ToLower(item)] = true
		items = append(items, item)
	}
	return items
}

// parseLabeledLines splits a "label: value" response into a map keyed by
// lowercased label. Later occurrences of a label are ignored; lines without a
// colon are appended to the preceding value so multi-line reasoning survives.
func parseLabeledLines(response string) map[string]string {
	fields := map[string]string{}
	var last string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		label, value, found := strings.Cut(line, ":")
		label = strings.ToLower(strings.TrimSpace(label))
		if found && !strings.Contains(label, " ") {
			if _, dup := fields[label]; !dup {
				fields[label] = strings.TrimSpace(value)
				last = label
			}
			continue
		}
		if last != "" {
			fields[last] += " " + line
		}
	}
	return fields
}

// parseSupportLevel reads a numeric support level and clamps it to [0, 10].
func parseSupportLevel(value string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	level := int(math.Round(f))
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}
	return level, nil
}

// parseYesNo reads an affirmative/negative answer, tolerating decoration like
// "Yes." or "no, because".
func parseYesNo(value string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.HasPrefix(v, "yes") || strings.HasPrefix(v, "true"):
		return true, true
	case strings.HasPrefix(v, "no") || strings.HasPrefix(v, "false"):
		return false, true
	}
	return false, false
}
