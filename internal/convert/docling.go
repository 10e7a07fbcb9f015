// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/textmify/internal/shell"
	"github.com/pdiddy/textmify/pkg/types"
)

const doclingBin = "docling"

// partialMarker is what the docling CLI logs when a document converts with
// errors.
const partialMarker = "partially converted"

// DoclingOptions configures the docling CLI backend.
type DoclingOptions struct {
	// NoOCR disables OCR for PDF inputs.
	NoOCR bool

	// ArtifactsPath points docling at pre-downloaded models.
	ArtifactsPath string

	// Env is appended to the subprocess environment (certificate settings).
	Env []string
}

// DoclingConverter converts documents by running the docling CLI once per
// file into a scratch directory.
type DoclingConverter struct {
	exec shell.Executor
	opts DoclingOptions
}

// NewDoclingConverter verifies the docling CLI is on PATH.
func NewDoclingConverter(opts DoclingOptions) (*DoclingConverter, error) {
	return newDoclingConverter(shell.OS{}, opts)
}

func newDoclingConverter(exec shell.Executor, opts DoclingOptions) (*DoclingConverter, error) {
	if _, err := exec.LookPath(doclingBin); err != nil {
		return nil, fmt.Errorf("%s CLI not found on PATH: %w", doclingBin, err)
	}
	return &DoclingConverter{exec: exec, opts: opts}, nil
}

// Name implements Converter.
func (d *DoclingConverter) Name() string { return string(types.BackendDocling) }

// Args returns the docling command line for src writing into outDir.
func (d *DoclingConverter) Args(src types.SourceFile, outDir string) []string {
	args := []string{"--to", "md", "--image-export-mode", "placeholder", "--output", outDir}
	if d.opts.NoOCR && src.Format == types.FormatPDF {
		args = append(args, "--no-ocr")
	}
	if d.opts.ArtifactsPath != "" {
		args = append(args, "--artifacts-path", d.opts.ArtifactsPath)
	}
	return append(args, src.Path)
}

// Convert implements Converter.
func (d *DoclingConverter) Convert(ctx context.Context, src types.SourceFile) (Output, error) {
	tmp, err := os.MkdirTemp("", "textmify-docling-*")
	if err != nil {
		return Output{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	var logs bytes.Buffer
	cmd := shell.Command{
		Name:   doclingBin,
		Args:   d.Args(src, tmp),
		Env:    d.opts.Env,
		Stdout: &logs,
		Stderr: &logs,
	}
	if err := d.exec.Run(ctx, cmd); err != nil {
		if tail := lastLine(logs.String()); tail != "" {
			return Output{}, fmt.Errorf("converting %s with docling: %w: %s", src.Name, err, tail)
		}
		return Output{}, fmt.Errorf("converting %s with docling: %w", src.Name, err)
	}

	md, err := readProduced(tmp, src.Stem())
	if err != nil {
		return Output{}, fmt.Errorf("converting %s with docling: %w", src.Name, err)
	}
	return Output{Markdown: md, Partial: strings.Contains(logs.String(), partialMarker)}, nil
}

// readProduced returns <dir>/<stem>.md, falling back to the only Markdown
// file in dir when docling normalised the name.
func readProduced(dir, stem string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, stem+".md"))
	if err == nil {
		return string(data), nil
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.md"))
	if len(matches) == 1 {
		data, err := os.ReadFile(matches[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no markdown produced")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
