// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the discovery results to disk for downstream
// analysis. Each run creates a timestamped directory containing the papers
// that meet the support threshold, the reference and citation edge lists, and
// the search history, as CSV or JSON.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paper-discovery/internal/store"
	"github.com/pdiddy/paper-discovery/pkg/types"
)

// Format names accepted by Config.Format.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Result reports where an export landed and how many rows each file got.
type Result struct {
	Dir        string `json:"dir"`
	Papers     int    `json:"papers"`
	References int    `json:"references"`
	Citations  int    `json:"citations"`
	SearchLogs int    `json:"search_logs"`
}

// Exporter writes store contents to an output directory.
type Exporter struct {
	Store  *store.Store
	Config types.ExportConfig
}

// Run exports papers at or above the support threshold plus the edge lists
// and search history. The support threshold applies only to the papers file;
// edges and history are always complete.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	var res Result

	format := e.Config.Format
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return res, fmt.Errorf("unknown export format %q", format)
	}

	outputDir := e.Config.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	dir := filepath.Join(outputDir, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("creating export directory: %w", err)
	}
	res.Dir = dir

	papers, err := e.Store.PapersWithSupport(ctx, e.Config.SupportThreshold)
	if err != nil {
		return res, err
	}
	references, err := e.Store.References(ctx)
	if err != nil {
		return res, err
	}
	citations, err := e.Store.Citations(ctx)
	if err != nil {
		return res, err
	}
	logs, err := e.Store.SearchLogs(ctx)
	if err != nil {
		return res, err
	}
	res.Papers = len(papers)
	res.References = len(references)
	res.Citations = len(citations)
	res.SearchLogs = len(logs)

	switch format {
	case FormatCSV:
		err = writeAll(dir, "csv", map[string]writerFunc{
			"papers":      func(f io.Writer) error { return writePapersCSV(f, papers) },
			"references":  func(f io.Writer) error { return writeEdgesCSV(f, references) },
			"citations":   func(f io.Writer) error { return writeEdgesCSV(f, citations) },
			"search_logs": func(f io.Writer) error { return writeSearchLogsCSV(f, logs) },
		})
	case FormatJSON:
		err = writeAll(dir, "json", map[string]writerFunc{
			"papers":      func(f io.Writer) error { return writeJSON(f, papers) },
			"references":  func(f io.Writer) error { return writeJSON(f, references) },
			"citations":   func(f io.Writer) error { return writeJSON(f, citations) },
			"search_logs": func(f io.Writer) error { return writeJSON(f, logs) },
		})
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

type writerFunc func(io.Writer) error

// writeAll creates one file per named section in dir.
func writeAll(dir, ext string, sections map[string]writerFunc) error {
	for name, write := range sections {
		path := filepath.Join(dir, name+"."+ext)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := write(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
	}
	return nil
}

func writeJSON(f io.Writer, v any) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
