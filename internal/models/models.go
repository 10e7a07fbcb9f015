// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package models manages the docling model artifacts directory. Downloading
// the layout and OCR models up front keeps the first conversion from
// stalling on network fetches.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/textmify/internal/shell"
)

const toolsBin = "docling-tools"

// ErrArtifactsMissing is returned when the artifacts directory does not exist.
var ErrArtifactsMissing = errors.New("model artifacts directory does not exist")

// DefaultPath returns ~/.cache/docling/models, or a relative fallback when
// the home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "docling", "models")
	}
	return filepath.Join(home, ".cache", "docling", "models")
}

// Check reports whether path exists and is a directory.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrArtifactsMissing)
		}
		return fmt.Errorf("checking artifacts path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("artifacts path %s is not a directory", path)
	}
	return nil
}

// Downloader fetches model artifacts with docling-tools.
type Downloader struct {
	exec shell.Executor
}

// NewDownloader returns a Downloader running real subprocesses.
func NewDownloader() *Downloader {
	return &Downloader{exec: shell.OS{}}
}

// Download runs "docling-tools models download -o path", streaming the
// tool's output to out. env carries the certificate settings.
func (d *Downloader) Download(ctx context.Context, path string, env []string, out io.Writer) error {
	if _, err := d.exec.LookPath(toolsBin); err != nil {
		return fmt.Errorf("%s not found on PATH (install docling first): %w", toolsBin, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating artifacts path %s: %w", path, err)
	}

	cmd := shell.Command{
		Name:   toolsBin,
		Args:   []string{"models", "download", "-o", path},
		Env:    env,
		Stdout: out,
		Stderr: out,
	}
	if err := d.exec.Run(ctx, cmd); err != nil {
		return fmt.Errorf("downloading models to %s: %w", path, err)
	}
	return nil
}
