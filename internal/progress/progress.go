// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress builds the terminal progress bars shown during a run.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Standard bar descriptions.
const (
	DescConverting = "Converting files"
	DescCombining  = "Combining files"
)

// New creates a consistently styled progress bar writing to stderr. When
// enabled is false the bar renders to io.Discard so callers never need a
// nil check.
func New(total int, description string, enabled bool) *progressbar.ProgressBar {
	var w io.Writer = os.Stderr
	if !enabled {
		w = io.Discard
	}
	return NewWithWriter(total, description, w)
}

// NewWithWriter creates a bar rendering to w.
func NewWithWriter(total int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)
}
