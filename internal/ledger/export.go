// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportRun holds a run with its conversions for export.
type ExportRun struct {
	Run         `yaml:",inline"`
	Conversions []Entry `json:"conversions" yaml:"conversions"`
}

// ExportYAML writes the selected runs and their conversions as YAML.
// A runID of zero exports every run.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, runID int64) error {
	runs, err := s.exportRuns(ctx, runID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the selected runs and their conversions as indented JSON.
// A runID of zero exports every run.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, runID int64) error {
	runs, err := s.exportRuns(ctx, runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportRuns(ctx context.Context, runID int64) ([]ExportRun, error) {
	var runs []Run
	if runID > 0 {
		r, err := s.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		runs = []Run{r}
	} else {
		var err error
		if runs, err = s.Runs(ctx, 0); err != nil {
			return nil, err
		}
	}

	out := make([]ExportRun, len(runs))
	for i, r := range runs {
		entries, err := s.Conversions(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
		out[i] = ExportRun{Run: r, Conversions: entries}
	}
	return out, nil
}
